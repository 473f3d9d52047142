package ports

type BotStatus struct {
	Running bool   `json:"running"`
	Channel string `json:"channel"`
}

type BotPort interface {
	Start(channel, targetLang string) error
	Stop() error
	Status() BotStatus
}
