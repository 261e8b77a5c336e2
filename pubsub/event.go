package pubsub

type Topic string

const (
	OracleRequestTopic = Topic("oracle-request")
)

type Event interface {
	GetTopic() Topic
}

type Handler func(Event)
