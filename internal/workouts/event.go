package workouts

import (
	"strconv"
	"time"
)

type EventType string

const (
	EventTypeTrainingStarted  EventType = "training_started"
	EventTypeTrainingFinished EventType = "training_finished"
	EventTypeWeightReport     EventType = "weight_report"
)

func (et EventType) String() string {
	return string(et)
}

func (et EventType) IsValid() bool {
	return et == EventTypeTrainingStarted ||
		et == EventTypeTrainingFinished ||
		et == EventTypeWeightReport
}

// Event is the stored form of every report below. Type specific values
// (calories, weight) live in Data as strings.
type Event struct {
	ID        int               `json:"id"`
	UserID    int               `json:"userId"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data"`
}

// report is anything a user can send about a workout.
type report interface {
	toEvent(userID int) Event
}

type TrainingStart struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (ts TrainingStart) toEvent(userID int) Event {
	return Event{
		UserID:    userID,
		Type:      EventTypeTrainingStarted,
		Timestamp: ts.Timestamp,
		Data:      map[string]string{},
	}
}

type TrainingFinish struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Calories  int       `json:"calories" validate:"gte=0,lte=20000"`
}

func (tf TrainingFinish) toEvent(userID int) Event {
	return Event{
		UserID:    userID,
		Type:      EventTypeTrainingFinished,
		Timestamp: tf.Timestamp,
		Data:      map[string]string{"calories": strconv.Itoa(tf.Calories)},
	}
}

// WeightReport carries body weight in kilos.
type WeightReport struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Weight    int       `json:"weight" validate:"gt=0,lte=500"`
}

func (wr WeightReport) toEvent(userID int) Event {
	return Event{
		UserID:    userID,
		Type:      EventTypeWeightReport,
		Timestamp: wr.Timestamp,
		Data:      map[string]string{"weight": strconv.Itoa(wr.Weight)},
	}
}
