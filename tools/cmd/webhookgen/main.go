// tools/cmd/webhookgen/main.go

// webhookgen prints a sample assistant.initialization webhook and can post it
// to a running adapter, for exercising /get-user-context by hand.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type webhook struct {
	Data struct {
		ID         string `json:"id"`
		EventType  string `json:"event_type"`
		OccurredAt string `json:"occurred_at"`
		Payload    struct {
			EndUserTarget string `json:"telnyx_end_user_target"`
			AgentTarget   string `json:"telnyx_agent_target"`
			Channel       string `json:"telnyx_conversation_channel"`
		} `json:"payload"`
	} `json:"data"`
}

func main() {
	target := flag.String("target", "+15551234567", "caller phone number")
	agent := flag.String("agent", "+15550000000", "assistant phone number")
	url := flag.String("url", "", "adapter base URL to post to, e.g. http://localhost:5000")
	out := flag.String("out", "", "also write the payload to this file")
	flag.Parse()

	var w webhook
	w.Data.ID = uuid.NewString()
	w.Data.EventType = "assistant.initialization"
	w.Data.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	w.Data.Payload.EndUserTarget = *target
	w.Data.Payload.AgentTarget = *agent
	w.Data.Payload.Channel = "phone_call"

	body, err := sonic.ConfigStd.MarshalIndent(w, "", "  ")
	if err != nil {
		logrus.Fatal(err)
	}
	fmt.Println(string(body))

	if *out != "" {
		if err := os.WriteFile(*out, body, 0o644); err != nil {
			logrus.Fatal(err)
		}
		logrus.Infof("wrote %s", *out)
	}

	if *url == "" {
		return
	}
	client := &http.Client{Timeout: 20 * time.Second}
	res, err := client.Post(*url+"/get-user-context", "application/json", bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Fatal("post webhook")
	}
	defer res.Body.Close()
	reply, _ := io.ReadAll(res.Body)
	logrus.WithField("status", res.StatusCode).Info("adapter replied")
	fmt.Println(string(reply))
}
