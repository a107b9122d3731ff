package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Parse 解析 YAML 知識庫，禁止未知欄位
func Parse(data []byte) (*KnowledgeBase, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Op: "parse", Err: errors.New("empty document")}
		}
		return nil, &ConfigError{Op: "parse", Err: err}
	}

	return New(doc)
}

// LoadFile 從檔案載入知識庫
func LoadFile(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Op: "read", Err: fmt.Errorf("%s: %w", path, err)}
	}
	return Parse(data)
}

// LoadDefault 載入內建的預設知識庫
func LoadDefault() (*KnowledgeBase, error) {
	return Parse(defaultDocument)
}

// Load 路徑為空時使用內建知識庫
func Load(path string) (*KnowledgeBase, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFile(path)
}

// MustLoadDefault 載入內建知識庫，失敗時 panic（僅供測試使用）
func MustLoadDefault() *KnowledgeBase {
	kb, err := LoadDefault()
	if err != nil {
		panic(err)
	}
	return kb
}
