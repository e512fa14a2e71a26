package main

import (
	"encoding/json"
	"os"

	"github.com/k0jin/acapella-maker/src/shared/config/dev"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_message"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/start"
	"github.com/rabbitmq/amqp091-go"
)

// dev tool - manually republishes a start job for an extraction ID so
// the local worker picks it up again
func main() {
	if len(os.Args) < 2 {
		panic("Usage: sender <extraction-id>")
	}

	conn, err := amqp091.Dial(dev.RabbitMQHost)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	rabbitChannel, err := conn.Channel()
	if err != nil {
		panic(err)
	}
	defer rabbitChannel.Close()

	queue, err := rabbitChannel.QueueDeclare(
		dev.RabbitMQQueueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		panic(err)
	}

	startJobParams := start.JobParams{
		ExtractionIdentifier: job_message.ExtractionIdentifier{
			ExtractionID: os.Args[1],
		},
	}

	jobBody, err := json.Marshal(startJobParams)

	if err != nil {
		panic(err)
	}

	job := amqp091.Publishing{Type: start.JobType, Body: jobBody}

	job.DeliveryMode = amqp091.Persistent
	job.ContentType = "application/json"

	err = rabbitChannel.Publish("", queue.Name, true, false, job)

	if err != nil {
		panic(err)
	}
}
