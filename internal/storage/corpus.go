package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"career-insight-go/internal/logger"
	"career-insight-go/internal/types"
)

// ErrCorpusLoad 语料库快照不可用（文件缺失、表头非法、行损坏）
var ErrCorpusLoad = errors.New("职位语料库加载失败")

// 语料库CSV的必需列
const (
	corpusColTitle       = "title"
	corpusColDescription = "description"
	corpusColURL         = "job_url"
	corpusColEmbedding   = "embedding"
)

// LoadCorpus 从CSV快照加载职位语料库
// embedding 列是JSON数组文本；行内任何解析失败都视为整体加载失败，
// 不做部分加载
func LoadCorpus(path string) ([]types.JobPosting, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 %s: %v", ErrCorpusLoad, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // 描述中可能含引号转义，列数校验放到逐行逻辑

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: 读取CSV %s: %v", ErrCorpusLoad, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s 为空", ErrCorpusLoad, path)
	}

	colIdx, err := indexColumns(records[0], []string{
		corpusColTitle, corpusColDescription, corpusColURL, corpusColEmbedding,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusLoad, err)
	}

	postings := make([]types.JobPosting, 0, len(records)-1)
	for rowNum, record := range records[1:] {
		if len(record) < len(records[0]) {
			return nil, fmt.Errorf("%w: 第 %d 行列数不足", ErrCorpusLoad, rowNum+2)
		}

		var embedding []float64
		if err := json.Unmarshal([]byte(record[colIdx[corpusColEmbedding]]), &embedding); err != nil {
			return nil, fmt.Errorf("%w: 第 %d 行向量解析失败: %v", ErrCorpusLoad, rowNum+2, err)
		}

		postings = append(postings, types.JobPosting{
			Title:       record[colIdx[corpusColTitle]],
			Description: record[colIdx[corpusColDescription]],
			URL:         record[colIdx[corpusColURL]],
			Embedding:   embedding,
		})
	}

	logger.Info().Int("count", len(postings)).Str("path", path).Msg("职位语料库加载完成")
	return postings, nil
}

// LoadRawPostings 加载未富集的职位CSV（爬取产物，无 embedding 列）
// 描述为空的行直接跳过
func LoadRawPostings(path string) ([]types.JobPosting, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开 %s: %v", ErrCorpusLoad, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: 读取CSV %s: %v", ErrCorpusLoad, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s 为空", ErrCorpusLoad, path)
	}

	colIdx, err := indexColumns(records[0], []string{
		corpusColTitle, corpusColDescription, corpusColURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusLoad, err)
	}

	postings := make([]types.JobPosting, 0, len(records)-1)
	skipped := 0
	for rowNum, record := range records[1:] {
		if len(record) < len(records[0]) {
			return nil, fmt.Errorf("%w: 第 %d 行列数不足", ErrCorpusLoad, rowNum+2)
		}
		description := strings.TrimSpace(record[colIdx[corpusColDescription]])
		if description == "" {
			skipped++
			continue
		}
		postings = append(postings, types.JobPosting{
			Title:       record[colIdx[corpusColTitle]],
			Description: description,
			URL:         record[colIdx[corpusColURL]],
		})
	}

	logger.Info().
		Int("count", len(postings)).
		Int("skipped", skipped).
		Str("path", path).
		Msg("原始职位数据加载完成")
	return postings, nil
}

// WriteCorpus 把职位语料库写成CSV快照（离线富集任务的输出端）
func WriteCorpus(path string, postings []types.JobPosting) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建语料库文件失败 %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{corpusColTitle, corpusColDescription, corpusColURL, corpusColEmbedding}); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i, p := range postings {
		embJSON, err := json.Marshal(p.Embedding)
		if err != nil {
			return fmt.Errorf("第 %d 条向量序列化失败: %w", i, err)
		}
		if err := writer.Write([]string{p.Title, p.Description, p.URL, string(embJSON)}); err != nil {
			return fmt.Errorf("第 %d 条写入失败: %w", i, err)
		}
	}

	// Flush 错误（如磁盘写满）必须上报，否则快照可能被截断
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("刷写语料库失败 %s: %w", path, err)
	}
	return nil
}

// indexColumns 在表头中定位必需列（大小写不敏感）
func indexColumns(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	out := make(map[string]int, len(required))
	for _, name := range required {
		pos, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("缺少必需列 %q", name)
		}
		out[name] = pos
	}
	return out, nil
}
