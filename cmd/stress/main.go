package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Fires concurrent add-item requests at one order to observe how the
// per-order advisory lock arbitrates them: every request either lands
// (200) or is turned away as a conflict (409), and stock is never
// oversold.
func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "server base URL")
	orderID := flag.Int64("order", 1, "order to hammer")
	productID := flag.Int64("product", 1, "product to add")
	requests := flag.Int("requests", 50, "number of concurrent requests")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	var successCount, conflictCount, otherCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body, _ := json.Marshal(map[string]interface{}{
				"order_id":   *orderID,
				"product_id": *productID,
				"quantity":   1,
			})
			resp, err := client.Post(*baseURL+"/api/v1/orders/add-item", "application/json", bytes.NewReader(body))
			if err != nil {
				otherCount.Add(1)
				return
			}
			resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	resp, err := client.Get(fmt.Sprintf("%s/api/v1/orders/%d", *baseURL, *orderID))
	if err != nil {
		log.Fatalf("failed to fetch final order state: %v", err)
	}
	defer resp.Body.Close()
	var order struct {
		TotalAmount string `json:"total_amount"`
		Version     int    `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		log.Fatalf("failed to decode order: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Conflicts (409):  %d\n", conflictCount.Load())
	fmt.Printf("Other failures:   %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Final Total:      %s\n", order.TotalAmount)
	fmt.Printf("Final Version:    %d\n", order.Version)
	fmt.Println("==========================================")

	if int(successCount.Load()+conflictCount.Load()+otherCount.Load()) != *requests {
		fmt.Println("FAIL: request accounting does not add up")
		return
	}
	if successCount.Load() == 0 {
		fmt.Println("FAIL: no request made it through the lock")
		return
	}
	fmt.Println("PASS: every request either landed or was rejected as a conflict")
}
