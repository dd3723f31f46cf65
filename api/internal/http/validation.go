package httpx

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const invalidValueMsg = "Invalid value"

// FieldError describes one failed field rule.
type FieldError struct {
	Type     string  `json:"type"`
	Value    *string `json:"value,omitempty"`
	Msg      string  `json:"msg"`
	Path     string  `json:"path"`
	Location string  `json:"location"`
}

type fieldRule struct {
	field string
	check func(value string, present bool) bool
}

func isEmail(field string) fieldRule {
	return fieldRule{field: field, check: func(value string, present bool) bool {
		return present && validEmail(value)
	}}
}

func minLength(field string, n int) fieldRule {
	return fieldRule{field: field, check: func(value string, present bool) bool {
		return present && utf8.RuneCountInString(value) >= n
	}}
}

func notEmpty(field string) fieldRule {
	return fieldRule{field: field, check: func(value string, present bool) bool {
		return present && value != ""
	}}
}

// validate runs rules in order and reports every failure.
func validate(form requestForm, rules ...fieldRule) []FieldError {
	var errs []FieldError
	for _, rule := range rules {
		value, present := form.lookup(rule.field)
		if rule.check(value, present) {
			continue
		}
		fe := FieldError{Type: "field", Msg: invalidValueMsg, Path: rule.field, Location: "body"}
		if present {
			v := value
			fe.Value = &v
		}
		errs = append(errs, fe)
	}
	return errs
}

func validEmail(value string) bool {
	if value == "" || strings.ContainsAny(value, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return false
	}
	domain := value[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
