package model

// Page はページング指定を表す。Page は1始まり。
type Page struct {
	Page  int
	Limit int
}

// Offset はSQLのOFFSET値を返す。
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Normalize は未指定・範囲外の値を既定値で補正したPageを返す。
// Limit は maxLimit を上限とする。
func (p Page) Normalize(defaultLimit, maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}
