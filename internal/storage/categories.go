package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"career-insight-go/internal/logger"
	"career-insight-go/internal/types"
)

// ErrCategoryTableLoad 技能类别需求排名表不可用
var ErrCategoryTableLoad = errors.New("技能类别排名表加载失败")

// 排名表CSV的必需列
const (
	categoryColLabel  = "final_label"
	categoryColCount  = "count"
	categoryColSkills = "original_skills"
)

// LoadCategoryTable 加载按市场需求排名的技能类别表
// 行序即排名：第一行 Rank=1
func LoadCategoryTable(path string) ([]types.SkillCategory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 %s: %v", ErrCategoryTableLoad, path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: 读取CSV %s: %v", ErrCategoryTableLoad, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s 为空", ErrCategoryTableLoad, path)
	}

	colIdx, err := indexColumns(records[0], []string{
		categoryColLabel, categoryColCount, categoryColSkills,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryTableLoad, err)
	}

	categories := make([]types.SkillCategory, 0, len(records)-1)
	for rowNum, record := range records[1:] {
		count, err := strconv.Atoi(strings.TrimSpace(record[colIdx[categoryColCount]]))
		if err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行 count 非法: %v", ErrCategoryTableLoad, rowNum+2, err)
		}

		var members []string
		for _, s := range strings.Split(record[colIdx[categoryColSkills]], ",") {
			if s = strings.TrimSpace(s); s != "" {
				members = append(members, s)
			}
		}

		categories = append(categories, types.SkillCategory{
			Label:        record[colIdx[categoryColLabel]],
			MemberSkills: members,
			Rank:         rowNum + 1,
			DemandCount:  count,
		})
	}

	logger.Info().Int("count", len(categories)).Str("path", path).Msg("技能类别排名表加载完成")
	return categories, nil
}

// WriteCategoryTable 写出排名表CSV（类别表构建子命令的输出端）
// 调用方负责先按需求量降序排好
func WriteCategoryTable(path string, categories []types.SkillCategory) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建排名表文件失败 %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{categoryColLabel, categoryColCount, categoryColSkills}); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i, c := range categories {
		row := []string{
			c.Label,
			strconv.Itoa(c.DemandCount),
			strings.Join(c.MemberSkills, ", "),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("第 %d 条写入失败: %w", i, err)
		}
	}

	// Flush 错误（如磁盘写满）必须上报，否则快照可能被截断
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("刷写排名表失败 %s: %w", path, err)
	}
	return nil
}
