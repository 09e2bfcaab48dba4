// services/api-gateway/customers/directory.go
package customers

import (
	"fmt"
	"regexp"
	"strings"
)

type Customer struct {
	Email string
	Name  string
}

// Directory maps caller phone numbers to known customers. It is built once
// at startup and only read afterwards.
type Directory struct {
	byPhone map[string]Customer
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]+`)

// CleanPhone keeps digits and '+' only.
func CleanPhone(number string) string {
	return strings.TrimSpace(nonPhoneChars.ReplaceAllString(number, ""))
}

// key drops the leading '+' so "+15551234567" and "15551234567" match.
func key(number string) string {
	return strings.TrimLeft(CleanPhone(number), "+")
}

// Parse reads "phone=email|name;phone=email|name". An empty string yields an
// empty directory.
func Parse(entries string) (*Directory, error) {
	d := &Directory{byPhone: map[string]Customer{}}
	for _, entry := range strings.Split(entries, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		phone, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("customer entry %q: missing '='", entry)
		}
		email, name, _ := strings.Cut(rest, "|")
		k := key(phone)
		email = strings.TrimSpace(email)
		if k == "" || email == "" {
			return nil, fmt.Errorf("customer entry %q: phone and email are required", entry)
		}
		d.byPhone[k] = Customer{Email: email, Name: strings.TrimSpace(name)}
	}
	return d, nil
}

func (d *Directory) Lookup(phone string) (Customer, bool) {
	if d == nil {
		return Customer{}, false
	}
	c, ok := d.byPhone[key(phone)]
	return c, ok
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byPhone)
}
