package store

import (
	"errors"
	"fmt"
)

// 错误分类：处理器只依赖这几个哨兵错误做分支，
// 其余一律视作临时故障，提示稍后重试
var (
	// ErrUnauthenticated 没有会话凭证或凭证无效，应引导用户登录
	ErrUnauthenticated = errors.New("未登录或凭证已失效")

	// ErrDuplicateEntry 该内容已有追剧记录，属于良性冲突
	ErrDuplicateEntry = errors.New("该内容已在追剧列表中")

	// ErrNotFound 目标记录在远端已不存在
	ErrNotFound = errors.New("记录不存在")
)

// apiError 远端接口返回的非 2xx 响应
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("远端接口返回 %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("远端接口返回 %d", e.Status)
}

// statusOf 取出 apiError 的状态码，不是 apiError 时返回 0
func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
