package catalog

import (
	"net/http"
	"time"

	"github.com/odysseylab/msgload/internal/datapool"
)

const (
	sendLimit  = 5 * time.Second
	faxLimit   = 10 * time.Second
	queryLimit = 3 * time.Second

	inboundFolder = "134296015"
)

// Base64 fixtures sent as document, list and attachment content.
const (
	emailBodyHTML      = "PGh0bWw+DQo8aGVhZGVyPg0KPG1ldGEgY2hhcnNldD0iVVRGLTgiPg0KPC9oZWFkZXI+DQo8Ym9keT4NClRoaXMgaXMgYW4gZW1haWwgdGVzdCBmcm9tIE9keXNzZXkgTWVzc2FnaW5nIEs2IFRlc3QuDQo8L2JvZHk+DQo8L2h0bWw+"
	emailTrackedHTML   = "PGh0bWw+DQo8aGVhZGVyPg0KPG1ldGEgY2hhcnNldD0iVVRGLTgiPg0KPC9oZWFkZXI+DQo8Ym9keT4NClRoaXMgaXMgYW4gZW1haWwgdGVzdCBmcm9tIE9keXNzZXkgTWVzc2FnaW5nIEs2IFRlc3QuDQo8YnIvPg0KPGEgaHJlZj0iaHR0cDovL3d3dy5vZHlzc2V5LW1lc3NhZ2luZy5jb20iPVRoaXMgaXMgYSBsaW5rIHRvIHRlc3QgdGhlIHRyYWNraW5nIG9wdGlvbjwvYT4NCjwvYm9keT4NCjwvaHRtbD4="
	emailMergeHTML     = "PGh0bWw+DQo8aGVhZGVyPg0KPG1ldGEgY2hhcnNldD0iVVRGLTgiPg0KPC9oZWFkZXI+DQo8Ym9keT4NCkhpIGBCQ0YyLCBBcmUgeW91IGZyb20gYEJDRjMgPyBLNiBUZXN0DQo8L2JvZHk+DQo8L2h0bWw+"
	attachmentText     = "VGhpcyBpcyBhbiBhdHRhY2hlbWVudCBmaWxlIGZvciBLNiBUZXN0"
	phoneListTab       = "77u/MDAzMzc4Tg3OA=="
	emailListTab       = "dXNlcm5AZ21haWwuY29tCUpvaG4JTXkgQ29tcGFueQlCaXJ0aERhdGU="
	faxDocumentText    = "Qm9uam91ciwgaWNpIEs2IFRlc3QsIGNlY2kgZXN0IHVuIHRlc3Qu"
	voiceDocumentText  = "VGhpcyBpcyBhIHZvaWNlIG1lc3NhZ2UgZm9yIEs2IFRlc3Q="
	voiceMergeDocument = "SGkgYEJDRjIsIEFyZSB5b3UgZnJvbSBgQkNGMyA/IEs2IFRlc3Q="
)

type payload = map[string]any

func recipient(name, address string, optional ...string) payload {
	r := payload{"Name": name, "Address": address}
	if len(optional) > 0 {
		r["OptionalFields"] = optional
	}
	return r
}

func file(name string, typ int, content string) payload {
	return payload{"Name": name, "Type": typ, "Content": content}
}

func localFile(name string, typ int, content string) payload {
	f := file(name, typ, content)
	f["Hosted"] = false
	return f
}

func emailParams(subject string) payload {
	return payload{"Media": 5, "Subject": subject, "ReplyTo": "support@k6test.com"}
}

func emailJob(d *Data, kind string, extra payload) payload {
	p := payload{
		"JobType":    "Email",
		"TrackingId": d.Pool.TrackingID("K6_Email_" + kind),
		"EmailBody":  file("body.html", 2, emailBodyHTML),
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func emailRecipient(d *Data, name string, company string) payload {
	return recipient(name, d.Pool.EmailAddress(), company, "BirthDate")
}

func faxJob(d *Data, kind string, extra payload) payload {
	p := payload{
		"JobType":    "NO_JTYPE",
		"TrackingId": d.Pool.TrackingID("K6_Fax_" + kind),
		"Documents":  []payload{file("k6document.pdf", 1, faxDocumentText)},
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func voiceJob(d *Data, kind string, extra payload) payload {
	p := payload{
		"JobType":    "Vocal",
		"TrackingId": d.Pool.TrackingID("K6_Voice_" + kind),
		"Documents":  []payload{file("K6Test.txt", 1, voiceDocumentText)},
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func send(id int, name, category, path string, limit time.Duration, body func(*Data) any) Case {
	return Case{ID: id, Name: name, Category: category, Method: http.MethodPost, Path: path, MaxDuration: limit, Body: body}
}

func query(id int, name, category, path string) Case {
	return Case{ID: id, Name: name, Category: category, Method: http.MethodGet, Path: path, MaxDuration: queryLimit}
}

func remove(id int, name, category, path string) Case {
	return Case{ID: id, Name: name, Category: category, Method: http.MethodDelete, Path: path, MaxDuration: queryLimit}
}

var cases = []Case{
	// SMS
	{
		ID: 1, Name: "SMS Basic", Category: CategorySMS, Method: http.MethodPost,
		Path: "/api/V1/SMSJobs", MaxDuration: sendLimit,
		RequireField: "JobNumber", Capture: "JobNumber",
		Body: func(d *Data) any {
			tracking := d.Pool.TrackingID("K6_SMS_Basic")
			return payload{
				"JobType":         "SMS",
				"Text":            d.Pool.Message(datapool.ChannelSMS, tracking),
				"TrackingId":      tracking,
				"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.PhoneNumber())},
			}
		},
	},
	{
		ID: 2, Name: "SMS Advanced", Category: CategorySMS, Method: http.MethodPost,
		Path: "/api/V1/SMSJobs", MaxDuration: sendLimit, RequireField: "JobNumber",
		Body: func(d *Data) any {
			return payload{
				"JobType":         "SMS",
				"TrackingId":      d.Pool.TrackingID("K6_SMS_Advanced"),
				"Text":            "Hello World Advanced K6 Test!",
				"Parameter":       payload{"Sender": "K6Test", "ContentType": 3, "Media": 1},
				"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.PhoneNumber(), d.Pool.CompanyName())},
			}
		},
	},
	send(3, "SMS FileList", CategorySMS, "/api/V1/SMSJobs", sendLimit, func(d *Data) any {
		return payload{
			"JobType":    "SMS",
			"TrackingId": d.Pool.TrackingID("K6_SMS_FileList"),
			"Text":       "Hello World File List K6 Test!",
			"Lists":      []payload{localFile("k6test.tab", 0, phoneListTab)},
		}
	}),
	send(4, "SMS Personalized", CategorySMS, "/api/V1/SMSJobs", sendLimit, func(d *Data) any {
		return payload{
			"JobType":    "SMS",
			"TrackingId": d.Pool.TrackingID("K6_SMS_Personalized"),
			"LaunchType": 0,
			"Text":       "Hi `BCF2, Are you from `BCF3? K6 Test",
			"AdhocRecipients": []payload{
				recipient("K6TestUser1", d.Pool.PhoneNumber(), "Company A"),
				recipient("K6TestUser2", d.Pool.PhoneNumber(), "Company B"),
			},
		}
	}),
	send(5, "SMS FullyPersonalized", CategorySMS, "/api/V1/SMSJobs", sendLimit, func(d *Data) any {
		return payload{
			"JobType":    "SMS",
			"TrackingId": d.Pool.TrackingID("K6_SMS_FullyPersonalized"),
			"LaunchType": 0,
			"Text":       "`BCF3",
			"AdhocRecipients": []payload{
				recipient("K6TestUser1", d.Pool.PhoneNumber(), "This is the text for the first recipient K6 Test"),
				recipient("K6TestUser2", d.Pool.PhoneNumber(), "This is the text for the second recipient K6 Test"),
			},
		}
	}),
	send(6, "SMS Scheduled", CategorySMS, "/api/V1/SMSJobs", sendLimit, func(d *Data) any {
		return payload{
			"JobType":            "SMS",
			"TrackingId":         d.Pool.TrackingID("K6_SMS_Scheduled"),
			"Text":               "Scheduled SMS K6 Test!",
			"ScheduledStartTime": d.ScheduledAt,
			"AdhocRecipients":    []payload{recipient("K6TestUser", d.Pool.PhoneNumber(), d.Pool.CompanyName())},
		}
	}),
	send(7, "SMS TrackingURL", CategorySMS, "/api/V1/SMSJobs", sendLimit, func(d *Data) any {
		return payload{
			"JobType":         "SMS",
			"TrackingId":      d.Pool.TrackingID("K6_SMS_TrackingURL"),
			"Text":            "Hello World K6 Test! Please click: http://www.example.com/",
			"Parameter":       payload{"Media": 1, "ShortUrl": true, "ShortUrlTracking": true},
			"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.PhoneNumber(), d.Pool.CompanyName())},
		}
	}),

	// Email
	{
		ID: 8, Name: "Email Basic", Category: CategoryEmail, Method: http.MethodPost,
		Path: "/api/V1/EmailJobs", MaxDuration: sendLimit, RequireField: "JobNumber",
		Body: func(d *Data) any {
			return emailJob(d, "Basic", payload{
				"AdhocRecipients": []payload{emailRecipient(d, "K6TestUser", d.Pool.CompanyName())},
				"Parameter":       emailParams("K6 Test Email Subject"),
			})
		},
	},
	send(9, "Email Advanced", CategoryEmail, "/api/V1/EmailJobs", sendLimit, func(d *Data) any {
		params := emailParams("K6 Test Email Advanced Subject")
		params["From"] = `"K6Test" <k6test@ods2.net>`
		params["ActivateAutoPull"] = true
		params["ActivateTracking"] = true
		params["TrackingType"] = 0
		return emailJob(d, "Advanced", payload{
			"EmailBody":       file("body.html", 2, emailTrackedHTML),
			"AdhocRecipients": []payload{emailRecipient(d, "K6TestUser", d.Pool.CompanyName())},
			"Attachments":     []payload{file("K6Attachment.txt", 4, attachmentText)},
			"Parameter":       params,
		})
	}),
	send(10, "Email FileList", CategoryEmail, "/api/V1/EmailJobs", sendLimit, func(d *Data) any {
		return emailJob(d, "FileList", payload{
			"Lists":     []payload{file("k6test.tab", 0, emailListTab)},
			"Parameter": emailParams("K6 Test Email FileList Subject"),
		})
	}),
	send(11, "Email Personalized", CategoryEmail, "/api/V1/EmailJobs", sendLimit, func(d *Data) any {
		return emailJob(d, "Personalized", payload{
			"EmailBody": file("body.html", 2, emailMergeHTML),
			"AdhocRecipients": []payload{
				emailRecipient(d, "K6TestUser1", "Company A"),
				emailRecipient(d, "K6TestUser2", "Company B"),
			},
			"Parameter": emailParams("K6 Test Email Personalized Subject"),
		})
	}),
	send(12, "Email Scheduled", CategoryEmail, "/api/V1/EmailJobs", sendLimit, func(d *Data) any {
		return emailJob(d, "Scheduled", payload{
			"ScheduledStartTime": d.ScheduledAt,
			"AdhocRecipients":    []payload{emailRecipient(d, "K6TestUser", d.Pool.CompanyName())},
			"Parameter":          emailParams("K6 Test Email Scheduled Subject"),
		})
	}),

	// Fax
	send(13, "Fax Basic", CategoryFax, "/api/V1/FaxJobs", faxLimit, func(d *Data) any {
		return faxJob(d, "Basic", payload{
			"LaunchType":      0,
			"Documents":       []payload{localFile("k6test.txt", 1, faxDocumentText)},
			"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.FaxNumber())},
		})
	}),
	send(14, "Fax Advanced", CategoryFax, "/api/V1/FaxJobs", faxLimit, func(d *Data) any {
		return faxJob(d, "Advanced", payload{
			"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.FaxNumber())},
			"Parameter":       payload{"Csid": d.Pool.CompanyName(), "Resolution": 1, "Media": 0},
		})
	}),
	send(15, "Fax FileList", CategoryFax, "/api/V1/FaxJobs", faxLimit, func(d *Data) any {
		return faxJob(d, "FileList", payload{
			"Lists": []payload{localFile("k6test.tab", 0, phoneListTab)},
		})
	}),
	send(16, "Fax Scheduled", CategoryFax, "/api/V1/FaxJobs", faxLimit, func(d *Data) any {
		return faxJob(d, "Scheduled", payload{
			"ScheduledStartTime": d.ScheduledAt,
			"AdhocRecipients":    []payload{recipient("K6TestUser", d.Pool.FaxNumber())},
		})
	}),

	// Voice
	send(17, "Voice Basic", CategoryVoice, "/api/V1/VoiceJobs", sendLimit, func(d *Data) any {
		return voiceJob(d, "Basic", payload{
			"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.PhoneNumber())},
		})
	}),
	send(18, "Voice Advanced", CategoryVoice, "/api/V1/VoiceJobs", sendLimit, func(d *Data) any {
		return voiceJob(d, "Advanced", payload{
			"AdhocRecipients": []payload{recipient("K6TestUser", d.Pool.PhoneNumber())},
			"Parameter": payload{
				"Sender":                "06xxxxxxxx",
				"TextToSpeechVoiceRate": 5,
				"TextToSpeechVoiceId":   7,
				"ScenarioId":            1,
				"AcknowledgeKey":        "2",
				"RepeatKey":             "1",
				"TransferNumber":        "06xxxxxxxx",
				"TransferKey":           "3",
				"Media":                 2,
			},
		})
	}),
	send(19, "Voice FileList", CategoryVoice, "/api/V1/VoiceJobs", sendLimit, func(d *Data) any {
		return voiceJob(d, "FileList", payload{
			"Lists": []payload{file("k6test.tab", 0, phoneListTab)},
		})
	}),
	send(20, "Voice Personalized", CategoryVoice, "/api/V1/VoiceJobs", sendLimit, func(d *Data) any {
		return voiceJob(d, "Personalized", payload{
			"Documents": []payload{file("K6Test.txt", 1, voiceMergeDocument)},
			"AdhocRecipients": []payload{
				recipient("K6TestUser1", d.Pool.PhoneNumber(), "Company A"),
				recipient("K6TestUser2", d.Pool.PhoneNumber(), "Company B"),
			},
		})
	}),
	send(21, "Voice Scheduled", CategoryVoice, "/api/V1/VoiceJobs", sendLimit, func(d *Data) any {
		return voiceJob(d, "Scheduled", payload{
			"ScheduledStartTime": d.ScheduledAt,
			"AdhocRecipients":    []payload{recipient("K6TestUser", d.Pool.PhoneNumber())},
		})
	}),

	// Hosted report files
	query(22, "Get Report Files", CategoryReports, "/api/V1/HostedReportFiles"),
	query(23, "Get Report File By Job", CategoryReports, "/api/V1/HostedReportFiles/{job}"),
	remove(24, "Delete Report File", CategoryReports, "/api/V1/HostedReportFiles/{job}"),

	// Job summaries
	query(25, "Get Job Summaries", CategoryJobSummaries, "/api/V1/JobSummaries?pageSize=10"),
	query(26, "Get Job Summary By ID", CategoryJobSummaries, "/api/V1/JobSummaries/{job}"),
	query(27, "Get Job Summaries Paged", CategoryJobSummaries, "/api/V1/JobSummaries?pageIndex=1&pageSize=5"),
	query(28, "Get Job Summaries Filtered", CategoryJobSummaries, "/api/V1/JobSummaries?filterTid=API&filterOnlyNotSent=true"),
	query(29, "Get Job Summaries By Media", CategoryJobSummaries, "/api/V1/JobSummaries?filterMedia=1&sortField=2&sortDirection=2"),
	query(30, "Get Job Summaries By Date", CategoryJobSummaries, "/api/V1/JobSummaries?filterStartDate={start}&filterEndDate={end}"),

	// Job items
	query(31, "Get Job Items", CategoryJobItems, "/api/V1/JobItems?filterJob={job}"),
	query(32, "Get Job Items Paged", CategoryJobItems, "/api/V1/JobItems?filterJob={job}&pageIndex=1&pageSize=50"),
	query(33, "Get Job Items Filtered", CategoryJobItems, "/api/V1/JobItems?filterJob={job}&filterFailed=false&filterOutcome='F'&sortField=7&sortDirection=1"),
	query(34, "Get Job Items By Date", CategoryJobItems, "/api/V1/JobItems?filterJob={job}&filterStartDate={start}&filterEndDate={end}"),

	// Inbound SMS
	query(35, "Get Inbound SMS", CategoryInboundSMS, "/api/V1/InboundSms"),
	query(36, "Get Inbound SMS Paged", CategoryInboundSMS, "/api/V1/InboundSms?pageIndex=1&pageSize=5&filterJob={job}"),
	query(37, "Get Inbound SMS By Sender", CategoryInboundSMS, "/api/V1/InboundSms?filterMSNDIS=INBOUNDSMS_55xxx&filterAni=336xxxxxx"),
	query(38, "Get Inbound SMS By Date", CategoryInboundSMS, "/api/V1/InboundSms?FilterStartDate={start}&FilterEndDate={end}&sortField=0&sortDirection=2"),

	// Inbound fax
	query(39, "Get Inbound Fax", CategoryInboundFax, "/api/V1/InboundFax"),
	query(40, "Get Inbound Fax Paged", CategoryInboundFax, "/api/V1/InboundFax?pageIndex=1&pageSize=5&filterTo="+inboundFolder),
	query(41, "Get Inbound Fax By Date", CategoryInboundFax, "/api/V1/InboundFax?FilterStartDate={start}&FilterEndDate={end}&sortField=0&sortDirection=2"),
	{
		ID: 42, Name: "Get Inbound Fax File", Category: CategoryInboundFax, Method: http.MethodGet,
		Path: "/api/V1/InboundFolders/" + inboundFolder + "/HostedInboundFiles/0-20170711-0714-1126279.PDF", MaxDuration: sendLimit,
	},
	remove(43, "Delete Inbound Fax File", CategoryInboundFax, "/api/V1/InboundFolders/"+inboundFolder+"/HostedInboundFiles/0-20170724-0749-1135087.PDF"),

	// Hosted list files
	query(44, "Get Hosted List Files", CategoryHostedLists, "/api/V1/HostedListFiles"),
	query(45, "Get Hosted List File", CategoryHostedLists, "/api/V1/HostedListFiles/K6TestList.tab"),
	send(46, "Add Hosted List File", CategoryHostedLists, "/api/V1/HostedListFiles", queryLimit, func(d *Data) any {
		return payload{"Name": "K6TestList_" + d.Pool.RandomID() + ".tab", "Content": emailListTab}
	}),
	remove(47, "Delete Hosted List File", CategoryHostedLists, "/api/V1/HostedListFiles/K6TestList.tab"),

	// Hosted document files
	query(48, "Get Hosted Document Files", CategoryHostedDocuments, "/api/V1/HostedDocumentFiles"),
	query(49, "Get Hosted Document File", CategoryHostedDocuments, "/api/V1/HostedDocumentFiles/K6TestDocument.pdf"),
	send(50, "Add Hosted Document File", CategoryHostedDocuments, "/api/V1/HostedDocumentFiles", queryLimit, func(d *Data) any {
		return payload{"Name": "K6TestDocument_" + d.Pool.RandomID() + ".pdf", "Content": emailListTab}
	}),
	remove(51, "Delete Hosted Document File", CategoryHostedDocuments, "/api/V1/HostedDocumentFiles/K6TestDocument.pdf"),
}
