package mqtt

import "strings"

// TopicPrefix is the root of every presence topic.
const TopicPrefix = "graylogic/presence"

// Topics provides builders for presence MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.DeviceEvent("dev-1a2b3c4d")
//	// Returns: "graylogic/presence/device/dev-1a2b3c4d/event"
type Topics struct{}

// Signal returns the shared topic devices publish signal frames on.
func (Topics) Signal() string {
	return TopicPrefix + "/signal"
}

// DeviceEvent returns the topic the gateway publishes a device's presence events on.
//
// MQTT wildcard characters in the host name are replaced so a device can
// never publish to, or subscribe through, another device's topic.
func (Topics) DeviceEvent(host string) string {
	return TopicPrefix + "/device/" + sanitiseLevel(host) + "/event"
}

// AllDeviceEvents returns a wildcard subscription for every device's events.
func (Topics) AllDeviceEvents() string {
	return TopicPrefix + "/device/+/event"
}

// SystemStatus returns the retained gateway status topic (also the LWT topic).
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

var levelReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// sanitiseLevel makes s safe to use as a single topic level.
func sanitiseLevel(s string) string {
	if s == "" {
		return "_"
	}
	return levelReplacer.Replace(s)
}
