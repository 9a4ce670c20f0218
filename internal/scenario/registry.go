package scenario

import "time"

func caseRange(first, last int) []int {
	ids := make([]int, 0, last-first+1)
	for id := first; id <= last; id++ {
		ids = append(ids, id)
	}
	return ids
}

var registry = map[string]Scenario{
	"smoke": {
		Name:        "smoke",
		Description: "Quick validation of one endpoint per category",
		Executor:    ExecutorConstantVUs,
		VUs:         5,
		Duration:    2 * time.Minute,
		Cases:       []int{1, 8, 13, 17, 22, 35, 44},
		Tags:        map[string]string{"test_type": "smoke"},
		Thresholds: map[string][]string{
			"http_req_duration": {"p(95)<3000", "p(99)<5000"},
			"http_req_failed":   {"rate<0.05"},
			"checks":            {"rate>0.95"},
		},
	},
	"load": {
		Name:        "load",
		Description: "Normal load with a moderate user count",
		Executor:    ExecutorRampingVUs,
		Stages: []Stage{
			{Duration: 2 * time.Minute, Target: 5},
			{Duration: 5 * time.Minute, Target: 10},
			{Duration: 2 * time.Minute, Target: 15},
			{Duration: 5 * time.Minute, Target: 15},
			{Duration: 2 * time.Minute, Target: 5},
			{Duration: 2 * time.Minute, Target: 0},
		},
		Tags: map[string]string{"test_type": "load"},
	},
	"stress": {
		Name:        "stress",
		Description: "High load to find breaking points",
		Executor:    ExecutorRampingVUs,
		Stages: []Stage{
			{Duration: 2 * time.Minute, Target: 10},
			{Duration: 5 * time.Minute, Target: 20},
			{Duration: 2 * time.Minute, Target: 30},
			{Duration: 5 * time.Minute, Target: 30},
			{Duration: 2 * time.Minute, Target: 40},
			{Duration: 5 * time.Minute, Target: 40},
			{Duration: 2 * time.Minute, Target: 20},
			{Duration: 2 * time.Minute, Target: 0},
		},
		Tags: map[string]string{"test_type": "stress"},
		Thresholds: map[string][]string{
			"http_req_duration": {"p(95)<8000", "p(99)<15000"},
			"http_req_failed":   {"rate<0.15"},
			"checks":            {"rate>0.85"},
		},
	},
	"spike": {
		Name:        "spike",
		Description: "Sudden load increases on the most critical send APIs",
		Executor:    ExecutorRampingVUs,
		Stages: []Stage{
			{Duration: time.Minute, Target: 5},
			{Duration: 30 * time.Second, Target: 50},
			{Duration: time.Minute, Target: 5},
			{Duration: 30 * time.Second, Target: 50},
			{Duration: time.Minute, Target: 0},
		},
		Cases: []int{1, 2, 3, 8, 9, 10},
		Tags:  map[string]string{"test_type": "spike"},
		Thresholds: map[string][]string{
			"http_req_duration": {"p(95)<10000", "p(99)<20000"},
			"http_req_failed":   {"rate<0.2"},
			"checks":            {"rate>0.8"},
		},
	},
	"endurance": {
		Name:        "endurance",
		Description: "Long-running stability test",
		Executor:    ExecutorConstantVUs,
		VUs:         15,
		Duration:    30 * time.Minute,
		Tags:        map[string]string{"test_type": "endurance"},
		Thresholds: map[string][]string{
			"http_req_duration": {"p(95)<5000", "p(99)<10000"},
			"http_req_failed":   {"rate<0.05"},
			"checks":            {"rate>0.95"},
		},
	},
	"volume": {
		Name:        "volume",
		Description: "Sustained high data volume",
		Executor:    ExecutorRampingVUs,
		Stages: []Stage{
			{Duration: 5 * time.Minute, Target: 20},
			{Duration: 20 * time.Minute, Target: 30},
			{Duration: 5 * time.Minute, Target: 0},
		},
		Tags: map[string]string{"test_type": "volume"},
	},
	"messaging_apis": {
		Name:        "messaging_apis",
		Description: "Message sending APIs only",
		Executor:    ExecutorRampingVUs,
		Stages: []Stage{
			{Duration: 2 * time.Minute, Target: 10},
			{Duration: 8 * time.Minute, Target: 20},
			{Duration: 2 * time.Minute, Target: 0},
		},
		Cases: caseRange(1, 21),
		Tags:  map[string]string{"test_type": "messaging"},
		Thresholds: map[string][]string{
			"http_req_duration": {"p(95)<4000", "p(99)<8000"},
			"http_req_failed":   {"rate<0.05"},
			"checks":            {"rate>0.95"},
		},
	},
	"reporting_apis": {
		Name:        "reporting_apis",
		Description: "Reporting and query APIs only",
		Executor:    ExecutorRampingVUs,
		Stages: []Stage{
			{Duration: time.Minute, Target: 15},
			{Duration: 6 * time.Minute, Target: 30},
			{Duration: time.Minute, Target: 0},
		},
		Cases: caseRange(22, 43),
		Tags:  map[string]string{"test_type": "reporting"},
		Thresholds: map[string][]string{
			"http_req_duration": {"p(95)<2000", "p(99)<4000"},
			"http_req_failed":   {"rate<0.05"},
			"checks":            {"rate>0.95"},
		},
	},
	"file_management": {
		Name:        "file_management",
		Description: "Hosted list and document file APIs",
		Executor:    ExecutorConstantVUs,
		VUs:         8,
		Duration:    5 * time.Minute,
		Cases:       caseRange(44, 51),
		Tags:        map[string]string{"test_type": "file_management"},
	},
}
