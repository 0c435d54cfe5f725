// seed_queue.go is a standalone script that seeds sample agents and waiting
// customers through the router API, then optionally triggers a routing pass.
//
// Usage:
//
//	go run scripts/seed_queue.go -api http://localhost:8700 -route
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

type agentSeed struct {
	Name            string   `json:"name"`
	Specialty       []string `json:"specialty"`
	ExperienceYears float64  `json:"experience_years"`
	PastSuccessRate float64  `json:"past_success_rate"`
	MaxConcurrent   int      `json:"max_concurrent"`
}

type customerSeed struct {
	Name            string  `json:"name"`
	Sentiment       string  `json:"sentiment"`
	Tier            string  `json:"tier"`
	IssueType       string  `json:"issue_type"`
	IssueComplexity float64 `json:"issue_complexity"`
	Channel         string  `json:"channel"`
	Priority        int     `json:"priority"`
}

var agents = []agentSeed{
	{Name: "Sarah Chen", Specialty: []string{"technical_support", "product_inquiry"}, ExperienceYears: 6, PastSuccessRate: 0.92, MaxConcurrent: 3},
	{Name: "Marcus Webb", Specialty: []string{"billing", "account_management"}, ExperienceYears: 4, PastSuccessRate: 0.85, MaxConcurrent: 3},
	{Name: "Priya Nair", Specialty: []string{"technical_support"}, ExperienceYears: 2, PastSuccessRate: 0.78, MaxConcurrent: 2},
	{Name: "Tom Okafor", Specialty: []string{"complaint_resolution", "billing"}, ExperienceYears: 8, PastSuccessRate: 0.88, MaxConcurrent: 4},
}

var customers = []customerSeed{
	{Name: "Acme Corp", Sentiment: "negative", Tier: "premium", IssueType: "technical_support", IssueComplexity: 4, Channel: "phone", Priority: 8},
	{Name: "Jane Doe", Sentiment: "neutral", Tier: "standard", IssueType: "billing", IssueComplexity: 2, Channel: "chat", Priority: 5},
	{Name: "Bob Smith", Sentiment: "positive", Tier: "basic", IssueType: "product_inquiry", IssueComplexity: 1, Channel: "email", Priority: 3},
	{Name: "Globex Ltd", Sentiment: "negative", Tier: "premium", IssueType: "complaint_resolution", IssueComplexity: 3, Channel: "phone", Priority: 9},
	{Name: "Initech", Sentiment: "neutral", Tier: "standard", IssueType: "account_management", IssueComplexity: 2, Channel: "chat", Priority: 4},
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "router API base URL")
	route := flag.Bool("route", false, "trigger a routing pass after seeding")
	dryRun := flag.Bool("dry-run", false, "print payloads without posting")
	flag.Parse()

	for _, a := range agents {
		if err := post(*apiURL+"/api/v1/agents", a, *dryRun); err != nil {
			log.Fatalf("seed agent %s: %v", a.Name, err)
		}
	}
	for _, c := range customers {
		if err := post(*apiURL+"/api/v1/customers", c, *dryRun); err != nil {
			log.Fatalf("seed customer %s: %v", c.Name, err)
		}
	}
	fmt.Printf("seeded %d agents, %d customers\n", len(agents), len(customers))

	if *route && !*dryRun {
		if err := post(*apiURL+"/api/v1/route", nil, false); err != nil {
			log.Fatalf("routing pass: %v", err)
		}
		fmt.Println("routing pass triggered")
	}
}

func post(url string, payload interface{}, dryRun bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("POST %s %s\n", url, body)
		return nil
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
