package service

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"

	"github.com/berat-eth/huglu-gateway/internal/gateway/domain"
)

// Attack signature names, in scan order. First match wins.
const (
	PatternSQLInjection     = "SQL_INJECTION"
	PatternXSS              = "XSS_ATTACK"
	PatternPathTraversal    = "PATH_TRAVERSAL"
	PatternCommandInjection = "COMMAND_INJECTION"
	PatternLDAPInjection    = "LDAP_INJECTION"
)

type signature struct {
	name string
	re   *regexp.Regexp

	// bodyQueryOnly restricts the signature to body+query. Command
	// injection is scoped this way: URL-embedded command-like substrings
	// (deviceId=android_..., paths containing "id") are too noisy.
	bodyQueryOnly bool
}

// Parameters whose values are stripped from the URL before scanning. They
// carry client-generated identifiers that trip keyword signatures.
var (
	safeParamPattern = regexp.MustCompile(`(?i)(deviceId|userId|tenantId|page|limit|offset|sort|order)=[^&]*`)
	deviceIDPattern  = regexp.MustCompile(`(?i)deviceId=android_[0-9]+_[a-zA-Z0-9]+`)
)

var signatures = []signature{
	{name: PatternSQLInjection, re: regexp.MustCompile(`(?i)\b(union|select|drop|insert|update|delete|alter|create|truncate|exec|execute)\b.*\b(from|into|table|database|where|set)\b`)},
	{name: PatternXSS, re: regexp.MustCompile(`(?i)<script|javascript:|on\w+\s*=|<iframe|<object|<embed`)},
	{name: PatternPathTraversal, re: regexp.MustCompile(`(?i)\.\./|\.\.\\|%2e%2e%2f|%2e%2e%5c`)},
	{name: PatternCommandInjection, re: regexp.MustCompile("(?i)[;&|`$]\\s*(ls|cat|rm|del|dir|type|ps|whoami|id|pwd|cd)"), bodyQueryOnly: true},
	{name: PatternLDAPInjection, re: regexp.MustCompile(`[=*()&|!]`)},
}

// ScanInput is the request surface the detector inspects. Body is treated as
// an opaque blob; the detector never assumes structure.
type ScanInput struct {
	IP           string
	URL          string
	Query        url.Values
	Body         []byte
	UserAgent    string
	ForwardedFor string
}

// ScanResult reports the first matching signature, if any.
type ScanResult struct {
	Detected bool
	Pattern  string
}

// Detector scans requests against the attack signature list. All state is
// compiled up front, so a single Detector is safe for unbounded concurrent
// use. A hit is recorded in the event ledger and bumps the source IP's
// reputation score.
type Detector struct {
	Events     *EventLog
	Reputation *Reputation

	// ScoreIncrement is added to the IP's reputation per detection.
	ScoreIncrement int
}

func NewDetector(events *EventLog, reputation *Reputation) *Detector {
	return &Detector{
		Events:         events,
		Reputation:     reputation,
		ScoreIncrement: 20,
	}
}

// Scan checks the request's path, query, body and a restricted header pair
// against every signature in order. Headers beyond user-agent and
// x-forwarded-for are excluded: arbitrary client headers produce too many
// false positives.
func (d *Detector) Scan(ctx context.Context, in ScanInput) ScanResult {
	cleanURL := deviceIDPattern.ReplaceAllString(in.URL, "")
	cleanURL = safeParamPattern.ReplaceAllString(cleanURL, "")

	body := string(in.Body)
	query := jsonify(in.Query)
	headers := jsonify(map[string]string{
		"user-agent":      in.UserAgent,
		"x-forwarded-for": in.ForwardedFor,
	})

	broad := cleanURL + body + query + headers
	narrow := body + query

	for _, sig := range signatures {
		target := broad
		if sig.bodyQueryOnly {
			target = narrow
		}

		if sig.re.MatchString(target) {
			d.Events.Log(domain.EventAttackPatternDetected, in.IP, map[string]any{
				"pattern":  sig.name,
				"url":      in.URL,
				"cleanUrl": cleanURL,
				"ua":       in.UserAgent,
			})
			if _, err := d.Reputation.Increase(ctx, in.IP, d.ScoreIncrement); err != nil {
				d.Events.Logger.Error("reputation increase failed", "ip", in.IP, "error", err)
			}
			return ScanResult{Detected: true, Pattern: sig.name}
		}
	}

	return ScanResult{}
}

// jsonify serializes v the way the scan signatures expect: JSON text, so a
// query map like {"a": ["b"]} contributes no bare '=' or '&' characters that
// would trip the LDAP signature on every request.
func jsonify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(b)
	if s == "{}" || s == "null" {
		return ""
	}
	return s
}
