package server

import (
	"fmt"
	"strings"
)

const (
	maxNameLength     = 20
	maxRoomNameLength = 40
)

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateRoomName(name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > maxRoomNameLength {
		return "", fmt.Errorf("room name must be %d characters or fewer", maxRoomNameLength)
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
