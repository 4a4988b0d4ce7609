package adapter

import (
	"database/sql"
	"strings"

	"schema-matcher/internal/errs"
)

// scanSample 把逐行结果转为按列排列的样本，NULL 记为空串
func scanSample(rows *sql.Rows, width int) ([][]string, error) {
	out := make([][]string, width)
	cells := make([]sql.NullString, width)
	dest := make([]interface{}, width)
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "scan sampled row", err)
		}
		for i, c := range cells {
			out[i] = append(out[i], c.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "iterate sampled rows", err)
	}
	return out, nil
}

// quoteWith 用 open/close 包裹标识符，内部出现的 close 字符加倍转义
func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func quoteAll(columns []string, quote func(string) string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

// iterErr 包装遍历结果集时的错误
func iterErr(err error, what string) error {
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, what, err)
	}
	return nil
}
