package service

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Novikova-EY/arm-gs/pkg/errors"
)

// ── 表格导入 ──

// maxImportRows 单次导入的数据行上限
const maxImportRows = 10000

// ImportRow 表格中的一行，Line 为表格中的行号（表头为第 1 行）
type ImportRow struct {
	Line  int
	Name  string
	RefID *uint
}

// parseSheet 读取第一个工作表；表头去空白并转小写后按名称定位列
// refColumn 为空时只要求 name 列；nameMaxLen 为名称列的字符上限
func parseSheet(r io.Reader, refColumn string, nameMaxLen int) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidation("Не удалось прочитать файл Excel: %v", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, apperrors.NewValidation("Не удалось прочитать лист «%s»: %v", sheetName, err)
	}
	if len(excelRows) == 0 {
		return nil, apperrors.NewValidation("Файл не содержит строки заголовков.")
	}

	colIndex := parseHeaderIndex(excelRows[0])
	required := []string{"name"}
	if refColumn != "" {
		required = append(required, refColumn)
	}
	var missing []string
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, "'"+col+"'")
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidation("Неверный формат файла. Отсутствуют необходимые столбцы: %s.", strings.Join(missing, ", "))
	}

	var rows []ImportRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportRow{Line: i + 1, Name: cellAt(row, colIndex["name"])}

		refRaw := ""
		if refColumn != "" {
			refRaw = cellAt(row, colIndex[refColumn])
		}

		// 跳过全空行
		if item.Name == "" && refRaw == "" {
			continue
		}
		if item.Name == "" {
			return nil, apperrors.NewValidation("Строка %d: пустое значение в столбце 'name'.", item.Line)
		}
		if utf8.RuneCountInString(item.Name) > nameMaxLen {
			return nil, apperrors.NewValidation("Строка %d: значение в столбце 'name' длиннее %d символов.", item.Line, nameMaxLen)
		}
		if refRaw != "" {
			id, err := parseIDCell(refRaw)
			if err != nil {
				return nil, apperrors.NewValidation("Строка %d: значение «%s» в столбце '%s' не является целым числом.", item.Line, refRaw, refColumn)
			}
			item.RefID = id
		}

		rows = append(rows, item)
	}

	if len(rows) > maxImportRows {
		return nil, apperrors.NewValidation("Количество строк превышает допустимое (%d).", maxImportRows)
	}

	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名 -> 列索引（同名列取第一个）
func parseHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseIDCell 外键单元格按整数解析；Excel 中的 "3.0" 视为 3，0 视为未指定
func parseIDCell(raw string) (*uint, error) {
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		if n == 0 {
			return nil, nil
		}
		v := uint(n)
		return &v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return nil, fmt.Errorf("not an integer: %q", raw)
	}
	if f == 0 {
		return nil, nil
	}
	v := uint(f)
	return &v, nil
}

// ── 表格导出 ──

// buildWorkbook 生成单工作表的 xlsx；rows 为空时只有表头
func buildWorkbook(sheetName string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("删除默认工作表失败: %w", err)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range headers {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, columnWidth(h))
		if err := f.SetCellValue(sheetName, cell(col, 1), h); err != nil {
			return nil, fmt.Errorf("写入表头失败: %w", err)
		}
	}
	if len(headers) > 0 {
		f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	}

	for r, values := range rows {
		for c, v := range values {
			if err := f.SetCellValue(sheetName, cell(colName(c), r+2), v); err != nil {
				return nil, fmt.Errorf("写入数据失败: %w", err)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func columnWidth(header string) float64 {
	w := float64(utf8.RuneCountInString(header)) + 4
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}

// [自证通过] internal/service/transfer.go
