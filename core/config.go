package core

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gookit/config/v2"
)

func LoadConfig(filename string, opt *Option) error {
	err := config.LoadFiles(filename)
	if err != nil {
		return err
	}
	err = config.Decode(opt)
	if err != nil {
		return err
	}
	return nil
}

// InitDefaultConfig renders the option struct as a commented yaml skeleton,
// groups from the embedded structs, keys from the config tags.
func InitDefaultConfig(opt *Option) string {
	var builder strings.Builder
	v := reflect.ValueOf(opt).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		group := t.Field(i)
		groupKey := group.Tag.Get("config")
		if groupKey == "" {
			continue
		}
		builder.WriteString(fmt.Sprintf("%s:\n", groupKey))
		writeConfigGroup(&builder, v.Field(i))
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeConfigGroup(builder *strings.Builder, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("config")
		if key == "" {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			builder.WriteString(fmt.Sprintf("  # %s\n", desc))
		}

		value := v.Field(i)
		if def := field.Tag.Get("default"); def != "" && value.IsZero() {
			builder.WriteString(fmt.Sprintf("  %s: %s\n", key, def))
			continue
		}
		switch value.Kind() {
		case reflect.Slice:
			if value.Len() == 0 {
				builder.WriteString(fmt.Sprintf("  # %s: []\n", key))
			} else {
				builder.WriteString(fmt.Sprintf("  %s: %v\n", key, value.Interface()))
			}
		case reflect.String:
			if value.String() == "" {
				builder.WriteString(fmt.Sprintf("  # %s: \"\"\n", key))
			} else {
				builder.WriteString(fmt.Sprintf("  %s: %s\n", key, value.String()))
			}
		default:
			builder.WriteString(fmt.Sprintf("  %s: %v\n", key, value.Interface()))
		}
	}
}
