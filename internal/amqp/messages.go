package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// DatasetUpdatedMessage announces that a new snapshot has been written.
// Consumers re-read the data themselves; the message carries no records.
type DatasetUpdatedMessage struct {
	Version   int64     `json:"version"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetUpdatedMessage(version int64, source string) *DatasetUpdatedMessage {
	return &DatasetUpdatedMessage{
		Version:   version,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (m *DatasetUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetUpdatedMessageFromJSON decodes and checks a message body.
func DatasetUpdatedMessageFromJSON(data []byte) (*DatasetUpdatedMessage, error) {
	var msg DatasetUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version <= 0 {
		return nil, fmt.Errorf("invalid snapshot version %d", msg.Version)
	}
	return &msg, nil
}
