// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motion_tracker/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsHub fans the live motion stream out to all connected browsers.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.Close()
}

// broadcast sends one message to every client, dropping clients whose write
// fails.
func (h *wsHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.conns, c)
			c.Close()
		}
	}
}

// RunWeb subscribes to the producer's MQTT streams and serves the live
// viewer: a JSON snapshot API, a websocket push of each motion update, and
// static files from ./web.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastAcc    AccMessage
		haveAcc    bool
		lastMotion MotionMessage
		haveMotion bool
	)
	hub := newWSHub()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	accToken := client.Subscribe(cfg.TopicAcc, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m AccMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("web: acc payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastAcc = m
		haveAcc = true
		mu.Unlock()
	})
	accToken.Wait()
	if accToken.Error() != nil {
		return accToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicAcc)

	motionToken := client.Subscribe(cfg.TopicMotion, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m MotionMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("web: motion payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastMotion = m
		haveMotion = true
		mu.Unlock()

		hub.broadcast(msg.Payload())
	})
	motionToken.Wait()
	if motionToken.Error() != nil {
		return motionToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicMotion)

	// JSON API: latest motion state
	http.HandleFunc("/api/motion", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveMotion {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastMotion); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// JSON API: latest acceleration sample
	http.HandleFunc("/api/acc", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveAcc {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastAcc); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Websocket push of each motion update
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		// Reads are only needed to notice the client going away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.remove(conn)
					return
				}
			}
		}()
	})

	// Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
