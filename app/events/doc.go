// Package events defines the message topics and payloads exchanged over the
// event bus. Topics carry a version suffix; payloads are JSON.
package events
