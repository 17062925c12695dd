package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table 简单表格输出
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow 添加行，超出表头的列被忽略
func (t *Table) AddRow(row []string) {
	for i, cell := range row {
		if w := utf8.RuneCountInString(cell); i < len(t.widths) && w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// Len 数据行数
func (t *Table) Len() int {
	return len(t.rows)
}

// Render 渲染表格
func (t *Table) Render() {
	headerColor := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		headerColor.Fprint(out, pad(h, t.widths[i])+"  ")
	}
	fmt.Fprintln(out)

	for i := range t.headers {
		fmt.Fprint(out, strings.Repeat("-", t.widths[i])+"  ")
	}
	fmt.Fprintln(out)

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(t.widths) {
				fmt.Fprint(out, pad(cell, t.widths[i])+"  ")
			}
		}
		fmt.Fprintln(out)
	}
}

// pad 按字符数右侧补齐，%-*s按字节计宽会让西里尔和中文列错位
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
