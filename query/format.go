package query

import "fmt"

// Fixed answer texts.
const (
	NotRecognizedMessage = "抱歉，未能识别电影名称，请检查电影名是否正确"
	UnknownIntentMessage = "抱歉，未能理解你的问题"
)

// Format renders the answer sentence for an outcome.
func Format(intent Intent, title string, o Outcome) string {
	label := intent.Label()

	switch o.Kind {
	case Found:
		return fmt.Sprintf("%s 这部电影的%s为 '%s'", title, label, o.Value)
	case NotFound:
		return fmt.Sprintf("未找到电影《%s》的信息", title)
	case PropertyMissing:
		return fmt.Sprintf("电影《%s》没有%s属性", title, label)
	case PropertyEmpty:
		return fmt.Sprintf("电影《%s》的%s信息未填写", title, label)
	case QueryError:
		reason := "unknown error"
		if o.Err != nil {
			reason = o.Err.Error()
		}

		return "查询出错：" + reason
	default:
		return UnknownIntentMessage
	}
}
