package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pielarmonia/booking-service/internal/booking"
)

// Fires a burst of concurrent booking requests at the same slot against a
// running api-server. With two doctors available, exactly two of the
// requests should win and everything else should come back 409.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "api-server base URL")
	workers := flag.Int("workers", 20, "concurrent booking attempts")
	date := flag.String("date", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "contested date")
	slot := flag.String("time", "10:00", "contested time")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	type outcome struct {
		status  int
		latency time.Duration
		err     error
	}

	results := make([]outcome, *workers)
	client := &http.Client{Timeout: 10 * time.Second}

	log.Printf("sending %d concurrent bookings for %s %s", *workers, *date, *slot)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			req := booking.CreateRequest{
				Service:        "consulta",
				Doctor:         booking.DoctorIndifferent,
				Date:           *date,
				Time:           *slot,
				Name:           gofakeit.Name(),
				Email:          gofakeit.Email(),
				Phone:          fmt.Sprintf("09%08d", gofakeit.Number(0, 99999999)),
				PrivacyConsent: true,
				PaymentMethod:  "efectivo",
			}
			body, _ := json.Marshal(req)

			began := time.Now()
			resp, err := client.Post(*baseURL+"/appointments", "application/json", bytes.NewReader(body))
			results[i] = outcome{latency: time.Since(began), err: err}
			if err != nil {
				return
			}
			resp.Body.Close()
			results[i].status = resp.StatusCode
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	byStatus := make(map[int]int)
	latencies := make([]time.Duration, 0, len(results))
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			continue
		}
		byStatus[r.status]++
		latencies = append(latencies, r.latency)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	log.Printf("done in %v", elapsed)
	for _, status := range sortedKeys(byStatus) {
		log.Printf("  HTTP %d: %d", status, byStatus[status])
	}
	if failures > 0 {
		log.Printf("  transport errors: %d", failures)
	}
	if len(latencies) > 0 {
		log.Printf("  latency p50=%v p95=%v max=%v",
			percentile(latencies, 50), percentile(latencies, 95), latencies[len(latencies)-1])
	}

	won := byStatus[http.StatusCreated]
	if won > len(booking.Doctors) {
		log.Fatalf("FAIL: %d bookings won the same slot, at most %d doctors can", won, len(booking.Doctors))
	}
	log.Printf("OK: %d booking(s) won the contested slot", won)
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
