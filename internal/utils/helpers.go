package utils

import "strings"

// LastTopicSegment returns the final segment of a slash separated topic
func LastTopicSegment(topic string) string {
	parts := strings.Split(topic, "/")
	return parts[len(parts)-1]
}
