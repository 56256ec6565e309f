package domain

import "errors"

// ErrEndpointNotFound 端点不存在或不属于当前租户
var ErrEndpointNotFound = errors.New("webhook endpoint not found")
