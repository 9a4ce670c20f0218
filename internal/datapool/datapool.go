// Package datapool holds the recipient and message data that request payloads
// are built from.
package datapool

import (
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// Channels used for recipients and message templates.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
	ChannelFax   = "fax"
	ChannelVoice = "voice"
)

// Pools is the data a run draws from. It can be loaded from YAML or JSON.
type Pools struct {
	PhoneNumbers     []string            `yaml:"phone_numbers"`
	EmailAddresses   []string            `yaml:"email_addresses"`
	FaxNumbers       []string            `yaml:"fax_numbers"`
	CompanyNames     []string            `yaml:"company_names"`
	UserNames        []string            `yaml:"user_names"`
	TrackingPrefixes []string            `yaml:"tracking_prefixes"`
	Messages         map[string][]string `yaml:"messages"`
}

// Recipient is one addressee in a job payload.
type Recipient struct {
	Name           string   `json:"Name"`
	Address        string   `json:"Address,omitempty"`
	OptionalFields []string `json:"OptionalFields,omitempty"`
}

// Defaults returns the built-in pools.
func Defaults() Pools {
	return Pools{
		PhoneNumbers: []string{
			"00337123456", "00337123457", "00337123458", "00337123459", "00337123460",
			"00336123456", "00336123457", "00336123458", "00336123459", "00336123460",
			"00335123456", "00335123457", "00335123458", "00335123459", "00335123460",
		},
		EmailAddresses: []string{
			"test1@example.com", "test2@example.com", "test3@example.com",
			"user1@testdomain.com", "user2@testdomain.com", "user3@testdomain.com",
			"demo1@k6test.com", "demo2@k6test.com", "demo3@k6test.com",
			"load1@odyssey.test", "load2@odyssey.test", "load3@odyssey.test",
		},
		FaxNumbers: []string{
			"00334123456", "00334123457", "00334123458", "00334123459", "00334123460",
			"00333123456", "00333123457", "00333123458", "00333123459", "00333123460",
		},
		CompanyNames: []string{
			"K6 Test Company", "LoadTest Corp", "API Test Inc", "Performance Ltd",
			"Benchmark Systems", "Quality Assurance Co", "Test Automation LLC",
			"Validation Services", "Monitoring Solutions", "Analytics Group",
		},
		UserNames: []string{
			"John Doe", "Jane Smith", "Bob Johnson", "Alice Brown", "Charlie Davis",
			"Diana Wilson", "Frank Miller", "Grace Taylor", "Henry Anderson", "Ivy Thomas",
		},
		TrackingPrefixes: []string{
			"K6_Test", "LoadTest", "PerformanceTest", "StressTest", "SmokeTest",
			"ApiTest", "IntegrationTest", "EnduranceTest", "SpikeTest", "VolumeTest",
		},
		Messages: map[string][]string{
			ChannelSMS: {
				"Hello World! K6 Load Test Message",
				"This is a K6 performance test SMS",
				"API load testing with K6 - Message {id}",
				"Automated test message from K6 suite",
				"Performance validation SMS - Test {id}",
			},
			ChannelEmail: {
				"This is an email test from Odyssey Messaging K6 Test Suite",
				"Automated email performance test - Message {id}",
				"K6 load testing email validation",
				"API performance test email from K6",
				"Odyssey API load test email - Test {id}",
			},
			ChannelVoice: {
				"This is a voice message for K6 Test Suite",
				"Automated voice test from K6 performance suite",
				"K6 load testing voice message - Test {id}",
				"API performance validation voice call",
				"Odyssey voice API test - Message {id}",
			},
		},
	}
}

// Load reads pools from a YAML or JSON file. Lists present in the file replace
// the defaults; absent lists keep them.
func Load(path string) (Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pools{}, fmt.Errorf("read data file: %w", err)
	}
	var override Pools
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Pools{}, fmt.Errorf("parse data file %s: %w", path, err)
	}

	p := Defaults()
	replace := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	replace(&p.PhoneNumbers, override.PhoneNumbers)
	replace(&p.EmailAddresses, override.EmailAddresses)
	replace(&p.FaxNumbers, override.FaxNumbers)
	replace(&p.CompanyNames, override.CompanyNames)
	replace(&p.UserNames, override.UserNames)
	replace(&p.TrackingPrefixes, override.TrackingPrefixes)
	for channel, templates := range override.Messages {
		if len(templates) > 0 {
			p.Messages[strings.ToLower(channel)] = templates
		}
	}
	return p, p.Validate()
}

var (
	phonePattern = regexp.MustCompile(`^00\d{9,12}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidPhoneNumber reports whether s is an international 00-prefixed number.
func ValidPhoneNumber(s string) bool { return phonePattern.MatchString(s) }

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// Validate checks every address in the pools.
func (p Pools) Validate() error {
	var issues []string
	for _, n := range p.PhoneNumbers {
		if !ValidPhoneNumber(n) {
			issues = append(issues, fmt.Sprintf("invalid phone number %q", n))
		}
	}
	for _, n := range p.FaxNumbers {
		if !ValidPhoneNumber(n) {
			issues = append(issues, fmt.Sprintf("invalid fax number %q", n))
		}
	}
	for _, e := range p.EmailAddresses {
		if !ValidEmail(e) {
			issues = append(issues, fmt.Sprintf("invalid email address %q", e))
		}
	}
	if len(issues) > 0 {
		return fmt.Errorf("data pools: %s", strings.Join(issues, "; "))
	}
	return nil
}

// Source draws random values from Pools. It is safe for concurrent use.
type Source struct {
	pools Pools
	mu    sync.Mutex
	rnd   *rand.Rand
	now   func() time.Time
}

// NewSource returns a Source over p seeded with seed.
func NewSource(p Pools, seed int64) *Source {
	return &Source{pools: p, rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Pools returns the underlying data.
func (s *Source) Pools() Pools { return s.pools }

// Pick returns a random element of items, or "" when empty.
func (s *Source) Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return items[s.rnd.Intn(len(items))]
}

func (s *Source) PhoneNumber() string  { return s.Pick(s.pools.PhoneNumbers) }
func (s *Source) EmailAddress() string { return s.Pick(s.pools.EmailAddresses) }
func (s *Source) FaxNumber() string    { return s.Pick(s.pools.FaxNumbers) }
func (s *Source) CompanyName() string  { return s.Pick(s.pools.CompanyNames) }
func (s *Source) UserName() string     { return s.Pick(s.pools.UserNames) }

// RandomID returns a unique, lexically sortable identifier.
func (s *Source) RandomID() string {
	return strings.ToLower(ulid.Make().String())
}

// TrackingID returns "<prefix>_<id>". An empty prefix picks one from the pool.
func (s *Source) TrackingID(prefix string) string {
	if prefix == "" {
		prefix = s.Pick(s.pools.TrackingPrefixes)
	}
	if prefix == "" {
		prefix = "K6_Test"
	}
	return prefix + "_" + s.RandomID()
}

// Message picks a template for channel and substitutes {id}. An empty id
// leaves the placeholder untouched.
func (s *Source) Message(channel, id string) string {
	templates := s.pools.Messages[channel]
	if len(templates) == 0 {
		return "Default " + channel + " message"
	}
	msg := s.Pick(templates)
	if id != "" {
		msg = strings.Replace(msg, "{id}", id, 1)
	}
	return msg
}

// Recipients builds count recipients addressed for channel.
func (s *Source) Recipients(count int, channel string) []Recipient {
	out := make([]Recipient, 0, count)
	for i := 0; i < count; i++ {
		r := Recipient{
			Name:           s.UserName(),
			OptionalFields: []string{s.CompanyName()},
		}
		switch channel {
		case ChannelSMS, ChannelVoice:
			r.Address = s.PhoneNumber()
		case ChannelEmail:
			r.Address = s.EmailAddress()
		case ChannelFax:
			r.Address = s.FaxNumber()
		}
		out = append(out, r)
	}
	return out
}

// FutureTime returns now plus hours, formatted for the API.
func (s *Source) FutureTime(hours int) string {
	return FormatTime(s.now().Add(time.Duration(hours) * time.Hour))
}

// DateRange returns a window ending now and starting daysBack days earlier.
func (s *Source) DateRange(daysBack int) (start, end string) {
	now := s.now()
	return FormatTime(now.AddDate(0, 0, -daysBack)), FormatTime(now)
}

// FormatTime renders t as the API's ISO-8601 millisecond UTC form.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
