package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/layout"
)

// FileInfo 分析前展示的工作簿信息
type FileInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	SprintName string `json:"sprintName"` // 读取失败时为空
}

// Inspect 读取文件大小与迭代名，不做任何校验
func Inspect(path string, l *layout.Layout) (FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if stat.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	info := FileInfo{Name: filepath.Base(path), Size: stat.Size()}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return info, nil
	}
	defer f.Close()

	if v, err := f.GetCellValue(l.DataSheet, l.Metadata.SprintName.Cell); err == nil {
		info.SprintName = strings.TrimSpace(v)
	}
	return info, nil
}
