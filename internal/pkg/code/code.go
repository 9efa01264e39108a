package code

// 通用返回码
const (
	Success = 0

	RequestParamsInvalid = -2000
	RequestFailed        = -2001
	TokenExpired         = -2002
	ChatStreamPushing    = -2005
	ContentEmpty         = -2008
	RateLimited          = -2009
	Timeout              = -2010
)

const (
	MsgSuccess              = "成功"
	MsgRequestParamsInvalid = "请求参数非法"
	MsgRequestFailed        = "请求失败"
	MsgTokenExpired         = "Token已失效"
	MsgChatStreamPushing    = "已有对话流正在输出"
	MsgContentEmpty         = "消息不能为空"
	MsgRateLimited          = "超出速率限制"
	MsgTimeout              = "等待响应超时"
)

var messages = map[int]string{
	Success:              MsgSuccess,
	RequestParamsInvalid: MsgRequestParamsInvalid,
	RequestFailed:        MsgRequestFailed,
	TokenExpired:         MsgTokenExpired,
	ChatStreamPushing:    MsgChatStreamPushing,
	ContentEmpty:         MsgContentEmpty,
	RateLimited:          MsgRateLimited,
	Timeout:              MsgTimeout,
}

// Message 返回码对应的提示
func Message(c int) string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return MsgRequestFailed
}
