package models

// RespValue 统一返回结构
type RespValue struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Err  string      `json:"err,omitempty"`
	Data interface{} `json:"data"`
}

// RespInfo 业务层返回码
type RespInfo struct {
	Code int
	Msg  string
}
