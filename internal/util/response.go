package util

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of the JSON envelope.
type Response map[string]any

// Business error codes carried in the envelope.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeNotFound     = 40401
	CodeServerErr    = 50001
)

// maxPageSize caps ?page_size on every listing.
const maxPageSize = 100

// envelope is the body of every /api response except /api/sync.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success writes {"code":0,"data":...}.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, envelope{Code: CodeOK, Data: data})
}

// Error writes {"code":...,"message":...} with the given HTTP status.
func Error(c *gin.Context, httpStatus, code int, msg string) {
	c.JSON(httpStatus, envelope{Code: code, Message: msg})
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, httpStatus, code int, msg string) {
	c.AbortWithStatusJSON(httpStatus, envelope{Code: code, Message: msg})
}

// Page is a parsed ?page / ?page_size pair.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ParsePage reads ?page (from 1) and ?page_size, falling back to defSize
// when the size is missing or out of range.
func ParsePage(c *gin.Context, defSize int) Page {
	p := Page{Number: 1, Size: defSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 && n <= maxPageSize {
		p.Size = n
	}
	return p
}

// Paged writes one page of items with the total row count.
func Paged(c *gin.Context, p Page, total int64, items any) {
	Success(c, Response{
		"items": items,
		"total": total,
		"page":  p.Number,
		"size":  p.Size,
	})
}
