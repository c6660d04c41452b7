package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// Measurement mirrors the wire shape the gateway expects
type Measurement struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// SensorReading mirrors the wire shape the gateway expects
type SensorReading struct {
	DeviceID        string        `json:"device_id"`
	SoftwareVersion string        `json:"software_version"`
	Measurements    []Measurement `json:"measurements"`
}

// DeviceConfig describes one simulated device
type DeviceConfig struct {
	ID       string
	Interval time.Duration
}

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8080/sensor-data", "ingress endpoint")
	username := flag.String("username", "sensor", "basic auth username")
	password := flag.String("password", "change-me", "basic auth password")
	mode := flag.String("mode", "single", "run mode: single, batch, continuous")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	switch *mode {
	case "single":
		sendReading(client, *endpoint, *username, *password, "esp8266-0001")
	case "batch":
		for i := 1; i <= 10; i++ {
			sendReading(client, *endpoint, *username, *password, fmt.Sprintf("esp8266-%04d", i))
			time.Sleep(100 * time.Millisecond)
		}
		fmt.Println("batch completed")
	case "continuous":
		runContinuous(client, *endpoint, *username, *password)
	default:
		fmt.Println("unknown run mode, use single, batch or continuous")
		os.Exit(1)
	}
}

// sampleReading builds a reading in the canonical measurement order an
// esp8266 weather sensor reports
func sampleReading(deviceID string) SensorReading {
	temp := 20.0 + rand.Float64()*10
	pressurePa := 98000.0 + rand.Float64()*4000
	humidity := 40.0 + rand.Float64()*40

	return SensorReading{
		DeviceID:        deviceID,
		SoftwareVersion: "NRZ-2024-135",
		Measurements: []Measurement{
			{Kind: "SDS_P1", Value: strconv.FormatFloat(rand.Float64()*20, 'f', 2, 64)},
			{Kind: "SDS_P2", Value: strconv.FormatFloat(rand.Float64()*10, 'f', 2, 64)},
			{Kind: "BME280_temperature", Value: strconv.FormatFloat(temp, 'f', 2, 64)},
			{Kind: "BME280_pressure", Value: strconv.FormatFloat(pressurePa, 'f', 0, 64)},
			{Kind: "BME280_humidity", Value: strconv.FormatFloat(humidity, 'f', 1, 64)},
			{Kind: "samples", Value: "830000"},
			{Kind: "signal", Value: strconv.Itoa(-30 - rand.Intn(60))},
		},
	}
}

// sendReading posts one reading with basic auth
func sendReading(client *http.Client, endpoint, username, password, deviceID string) {
	reading := sampleReading(deviceID)

	payload, err := json.Marshal(reading)
	if err != nil {
		fmt.Printf("failed to encode reading: %v\n", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("failed to build request: %v\n", err)
		return
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("sent reading for %s: %s\n", deviceID, resp.Status)
}

// runContinuous simulates several devices reporting on their own intervals
func runContinuous(client *http.Client, endpoint, username, password string) {
	devices := []DeviceConfig{
		{ID: "esp8266-0001", Interval: 5 * time.Second},
		{ID: "esp8266-0002", Interval: 8 * time.Second},
		{ID: "esp8266-0003", Interval: 13 * time.Second},
	}

	for _, device := range devices {
		go func(dev DeviceConfig) {
			for {
				sendReading(client, endpoint, username, password, dev.ID)
				time.Sleep(dev.Interval)
			}
		}(device)
		fmt.Printf("device %s will report every %v\n", device.ID, device.Interval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("sender stopped")
}
