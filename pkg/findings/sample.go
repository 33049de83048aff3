package findings

import "time"

// Sample returns a small data set for demos and the seed command. Endpoint
// ids start at 1 and findings reference them by id.
func Sample(now time.Time) ([]Endpoint, []Finding) {
	day := func(offset int) time.Time {
		y, m, d := now.AddDate(0, 0, -offset).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	endpoints := []Endpoint{
		{ID: 1, Protocol: "https", Host: "shop.example.com", Path: "/checkout", ProductID: 1},
		{ID: 2, Protocol: "https", Host: "api.example.com", Port: 8443, Path: "/v1/orders", ProductID: 1},
		{ID: 3, Protocol: "http", Host: "legacy.example.com", Path: "/cgi-bin/report", ProductID: 2},
	}

	items := []Finding{
		{
			ID:            1,
			Title:         "SQL Injection in order lookup",
			Severity:      SeverityCritical,
			Description:   "User input reaches a dynamic SQL statement without parameter binding.",
			Mitigation:    "Use prepared statements.",
			Impact:        "Full read access to the orders database.",
			ComponentName: "orders-service",
			FilePath:      "src/orders/lookup.c",
			Line:          212,
			CWE:           89,
			Date:          day(2),
			Active:        true,
			Verified:      true,
			NbOccurences:  1,
			Tags:          []string{"web", "injection"},
			ProductID:     1,
			TestID:        10,
			EndpointIDs:   []int{2},
			Notes:         []Note{{Author: "analyst", Entry: "Confirmed with a time based payload.", Date: day(1)}},
		},
		{
			ID:            2,
			Title:         "Reflected cross site scripting",
			Severity:      SeverityHigh,
			Description:   "The search parameter is echoed without encoding.",
			Mitigation:    "Encode output for the HTML context.",
			ComponentName: "storefront",
			FilePath:      "web/search.cbl",
			Line:          48,
			CWE:           79,
			Date:          day(10),
			Active:        true,
			Verified:      true,
			NbOccurences:  3,
			Tags:          []string{"web"},
			ProductID:     1,
			TestID:        10,
			EndpointIDs:   []int{1},
			Images:        []Image{{Caption: "Alert box", Path: "evidence/xss.png"}},
		},
		{
			ID:            3,
			Title:         "Buffer overflow in report parser",
			Severity:      SeverityMedium,
			Description:   "strcpy into a fixed size stack buffer.",
			Mitigation:    "Bound the copy.",
			ComponentName: "report-cgi",
			FilePath:      "cgi/report.c",
			Line:          77,
			CWE:           120,
			Date:          day(45),
			Active:        true,
			Verified:      false,
			NbOccurences:  1,
			Tags:          []string{"native"},
			ProductID:     2,
			TestID:        11,
			EndpointIDs:   []int{3},
		},
		{
			ID:            4,
			Title:         "Hard coded credentials",
			Severity:      SeverityLow,
			Description:   "A service password is embedded in the COBOL copybook.",
			ComponentName: "batch-billing",
			FilePath:      "copybooks/billing.cpy",
			Line:          5,
			CWE:           798,
			Date:          day(200),
			Active:        false,
			Verified:      true,
			FalsePositive: true,
			NbOccurences:  2,
			ProductID:     2,
			TestID:        11,
		},
	}
	return endpoints, items
}
