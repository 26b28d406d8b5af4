package textsim

import (
	"regexp"
	"strings"
)

var (
	// 非单词字符（保留空白），与 \W 去除标点的效果一致
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]+`)
	// 至少两个单词字符组成的 token
	tokenRe = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]{2,}`)
)

// Normalize 小写并去除标点
func Normalize(text string) string {
	return nonWordRe.ReplaceAllString(strings.ToLower(text), "")
}

// Tokenize 切分出长度 >= 2 的单词
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Soup 拼接用于向量化的文本：标题、类型各重复一次以提高权重
func Soup(title, description string, genres []string) string {
	t := Normalize(title)
	g := Normalize(strings.Join(genres, " "))
	return strings.Join([]string{t, t, Normalize(description), g, g}, " ")
}
