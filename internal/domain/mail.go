package domain

const (
	MailTypeCreateUser     = "create_user"
	MailTypeRosterFinished = "roster_finished"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RosterFinishedMailData struct {
	FullName  string  `json:"fullName"`
	PlanName  string  `json:"planName"`
	Cost      float64 `json:"cost"`
	IsPerfect bool    `json:"isPerfect"`
}
