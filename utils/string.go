package utils

import (
	"fmt"
	"strings"
)

func Format[T any](ptr *T) string {
	if ptr == nil {
		return ""
	}
	return fmt.Sprintf("%v", *ptr)
}

func FormatBoolean(yesno bool, yes string, no string) string {
	if yesno {
		return yes
	}
	return no
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(s string) []string {
	return Filter(Map(strings.Split(s, ","), strings.TrimSpace), func(v string) bool { return v != "" })
}
