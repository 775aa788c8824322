package protocol

import (
	"encoding/json"
	"time"
)

// ForecastMessage is the envelope mirrored onto Kafka for every published
// energy forecast
type ForecastMessage struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	GeneratedAt time.Time         `json:"generated_at"`
	Forecast    map[string]string `json:"forecast"`
}

// EncodeBundle encodes a forecast bundle as the flat JSON object sent over MQTT
func EncodeBundle(bundle map[string]string) ([]byte, error) {
	if bundle == nil {
		bundle = map[string]string{}
	}
	return json.Marshal(bundle)
}

// DecodeBundle decodes a flat JSON forecast object
func DecodeBundle(data []byte) (map[string]string, error) {
	var bundle map[string]string
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// EncodeForecastMessage encodes a ForecastMessage to JSON
func EncodeForecastMessage(msg *ForecastMessage) ([]byte, error) {
	return json.Marshal(msg)
}
