package util

import (
	"encoding/json"
	"fmt"
	"net/http"

	"search-server/internal/app/models"
)

// WriteSSE 按 "data: <json>\n\n" 写出一帧并立即 flush, 事件字段和 type 平铺在同一层
func WriteSSE(w http.ResponseWriter, eventType string, data interface{}) error {
	var event map[string]interface{}

	switch v := data.(type) {
	case models.HeartbeatEvent:
		event = map[string]interface{}{
			"type": eventType,
		}
	case models.QueryEvent:
		event = map[string]interface{}{
			"type":           eventType,
			"data":           v.Data,
			"conversationId": v.ConversationID,
		}
	case models.AppendTextEvent:
		event = map[string]interface{}{
			"type": eventType,
			"text": v.Text,
		}
	case models.SetReferenceEvent:
		event = map[string]interface{}{
			"type":     eventType,
			"resultId": v.ResultID,
			"list":     v.List,
		}
	case models.ErrorEvent:
		event = map[string]interface{}{
			"type": eventType,
			"code": v.Code,
			"msg":  v.Msg,
		}
	default:
		if m, ok := data.(map[string]interface{}); ok {
			m["type"] = eventType
			event = m
		} else {
			return fmt.Errorf("unsupported event data type: %T", data)
		}
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintf(w, "data: %s\n\n", bytes); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func WriteHeartbeat(w http.ResponseWriter) error {
	return WriteSSE(w, "heartbeat", models.HeartbeatEvent{})
}

func WriteQuery(w http.ResponseWriter, data []string, conversationID string) error {
	return WriteSSE(w, "query", models.QueryEvent{
		Data:           data,
		ConversationID: conversationID,
	})
}

func WriteAppendText(w http.ResponseWriter, text string) error {
	return WriteSSE(w, "append-text", models.AppendTextEvent{Text: text})
}

func WriteSetReference(w http.ResponseWriter, resultID string, list []models.ReferenceItem) error {
	return WriteSSE(w, "set-reference", models.SetReferenceEvent{
		ResultID: resultID,
		List:     list,
	})
}

func WriteError(w http.ResponseWriter, code int, msg string) error {
	return WriteSSE(w, "error", models.ErrorEvent{Code: code, Msg: msg})
}

func WriteDone(w http.ResponseWriter) {
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
