package domain

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"github.com/miekg/dns"
)

// recordLabelRegex is the LDH label grammar widened to underscores, as used by service
// labels such as _dmarc or _acme-challenge.
var recordLabelRegex = regexp.MustCompile(`(?i)^[a-z0-9_]([a-z0-9_-]{0,61}[a-z0-9])?$`)

// validateRecordName checks name label by label. The trailing dot is optional. A leading
// "*" label is accepted only when wildcard is set.
func validateRecordName(name string, wildcard bool) error {
	if _, ok := dns.IsDomainName(name); !ok {
		return fmt.Errorf("%q is not a domain name", name)
	}
	trimmed := strings.TrimSuffix(name, ".")
	if trimmed == "" {
		return fmt.Errorf("name cannot be empty")
	}
	for i, label := range strings.Split(trimmed, ".") {
		if wildcard && i == 0 && label == "*" {
			continue
		}
		if !recordLabelRegex.MatchString(label) {
			return fmt.Errorf("label %q contains invalid characters or format", label)
		}
	}
	return nil
}

// ParseRecordType maps s onto the closed set of supported record types, ignoring case.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	for _, supported := range SupportedRecordTypes {
		if t == supported {
			return t, nil
		}
	}
	return "", ErrUnsupportedType.WithMessage(fmt.Sprintf("unknown record type %q", s))
}

// ValidateRecordContent checks content against the grammar of rtype.
func ValidateRecordContent(rtype RecordType, content string) error {
	switch rtype {
	case TypeA:
		addr, err := netip.ParseAddr(content)
		if err != nil || !addr.Is4() {
			return ErrMalformedContent.WithMessage("invalid IPv4 address")
		}
		return nil
	case TypeAAAA:
		addr, err := netip.ParseAddr(content)
		if err != nil || !addr.Is6() || addr.Zone() != "" {
			return ErrMalformedContent.WithMessage("invalid IPv6 address")
		}
		return nil
	case TypeCNAME:
		if err := validateRecordName(content, false); err != nil {
			return ErrMalformedContent.WithMessage("invalid CNAME: " + err.Error())
		}
		return nil
	case TypeMX:
		if err := validateRecordName(content, false); err != nil {
			return ErrMalformedContent.WithMessage("invalid MX record: " + err.Error())
		}
		return nil
	case TypeTXT:
		return nil
	}
	return ErrUnsupportedType.WithMessage(fmt.Sprintf("unknown record type %q", string(rtype)))
}

// ValidateContainment requires name to be zoneID or to sit below it.
func ValidateContainment(name, zoneID string) error {
	if name == zoneID || strings.HasSuffix(name, "."+zoneID) {
		return nil
	}
	return ErrNotFullyQualified.WithMessage(fmt.Sprintf("record name must end with %s", zoneID))
}

// ValidateRecordName checks the owner name of a record. Wildcard and underscore labels are allowed.
func ValidateRecordName(name string) error {
	if err := validateRecordName(name, true); err != nil {
		return ErrInvalidRecordName.WithMessage(err.Error())
	}
	return nil
}

// ValidateTTL rejects TTLs above MaxTTL.
func ValidateTTL(ttl uint32) error {
	if ttl > MaxTTL {
		return ErrInvalidTTL.WithMessage(fmt.Sprintf("ttl must not exceed %d", MaxTTL))
	}
	return nil
}
