package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

var validLabelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// NormalizeFQDN lower-cases name and appends the trailing dot if absent. It is idempotent.
func NormalizeFQDN(name string) string {
	return dns.Fqdn(strings.ToLower(strings.TrimSpace(name)))
}

// validateHostname checks that fqdn is a dotted hostname made of LDH labels.
func validateHostname(fqdn string) error {
	if fqdn == "" || fqdn == "." {
		return fmt.Errorf("name cannot be empty")
	}
	if !strings.HasSuffix(fqdn, ".") {
		return fmt.Errorf("name must end with a dot (FQDN)")
	}
	if len(fqdn) > 254 {
		return fmt.Errorf("name exceeds 253 characters")
	}
	if _, ok := dns.IsDomainName(fqdn); !ok {
		return fmt.Errorf("name is not a valid domain name")
	}

	labels := strings.Split(strings.TrimSuffix(fqdn, "."), ".")
	for _, label := range labels {
		if label == "" {
			return fmt.Errorf("name contains empty label")
		}
		if len(label) > 63 {
			return fmt.Errorf("label '%s' exceeds 63 characters", label)
		}
		if !validLabelRegex.MatchString(label) {
			return fmt.Errorf("label '%s' contains invalid characters or format", label)
		}
	}
	return nil
}

// ComputeRoot returns the registrable root (public suffix plus one label) of fqdn,
// e.g. a.b.example.co.uk. -> example.co.uk.
func ComputeRoot(fqdn string) (string, error) {
	if err := validateHostname(fqdn); err != nil {
		return "", ErrInvalidDomain.WithMessage(err.Error())
	}
	name := strings.TrimSuffix(fqdn, ".")

	// Unlisted TLDs come back as a single label outside the ICANN section.
	suffix, icann := publicsuffix.PublicSuffix(name)
	if !icann && !strings.Contains(suffix, ".") {
		return "", ErrInvalidDomain.WithMessage(fmt.Sprintf("%q has no recognized public suffix", fqdn))
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return "", ErrInvalidDomain.WithMessage(err.Error())
	}
	return root + ".", nil
}

// EnforceIsRoot rejects fqdn unless it is its own registrable root.
func EnforceIsRoot(fqdn, root string) error {
	if fqdn != root {
		return ErrNotRootDomain.WithMessage(fmt.Sprintf("domain must be a root domain (%s)", root))
	}
	return nil
}

// FindOwningZone returns the most specific zone containing candidate: the longest zone ID
// that candidate equals or ends with on a label boundary. ok is false when no zone matches.
func FindOwningZone(candidate string, zones []Zone) (zone Zone, ok bool) {
	for _, z := range zones {
		if candidate != z.ID && !strings.HasSuffix(candidate, "."+z.ID) {
			continue
		}
		if !ok || len(z.ID) > len(zone.ID) {
			zone, ok = z, true
		}
	}
	return zone, ok
}
