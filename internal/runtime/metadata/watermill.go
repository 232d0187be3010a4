package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// FromWatermill converts Watermill metadata into Metadata.
func FromWatermill(md message.Metadata) Metadata {
	return Metadata(ToProperties(md))
}

// ToWatermill converts Metadata into a Watermill map.
func ToWatermill(metadata Metadata) message.Metadata {
	return FromProperties(metadata)
}

// ToProperties copies watermill metadata into a broker property map.
// Transport-local keys (pulsar_*) are dropped so they are not echoed back
// onto the broker when a received message is forwarded.
func ToProperties(md message.Metadata) map[string]string {
	props := make(map[string]string, len(md))
	for k, v := range md {
		if isTransportLocal(k) {
			continue
		}
		props[k] = v
	}
	return props
}

// FromProperties copies broker properties into watermill metadata.
func FromProperties(props map[string]string) message.Metadata {
	md := make(message.Metadata, len(props))
	for k, v := range props {
		md[k] = v
	}
	return md
}

func isTransportLocal(key string) bool {
	switch key {
	case KeyPulsarTopic, KeyPulsarMessageID, KeyPulsarPublishTime, KeyPulsarKey:
		return true
	}
	return false
}
