package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type AssignmentDoneMailData struct {
	SessionID    string `json:"sessionID"`
	GradeCount   int    `json:"gradeCount"`
	StudentCount int    `json:"studentCount"`
	Expiration   int    `json:"expiration"` // 结果文件的保留时间，以分钟为单位
}
