package pkg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func NewStatistor(url string) *Statistor {
	return &Statistor{
		BaseUrl:   url,
		Counts:    make(map[int]int),
		StartTime: time.Now().Unix(),
	}
}

type Statistor struct {
	BaseUrl       string      `json:"url"`
	Counts        map[int]int `json:"counts"`
	ReqNumber     int         `json:"req"`
	RetryNumber   int         `json:"retry"`
	FailedNumber  int         `json:"failed"`
	SuccessNumber int         `json:"success"`
	FailureNumber int         `json:"failure"`
	Offset        int         `json:"offset"`
	Total         int         `json:"total"`
	StartTime     int64       `json:"start_time"`
	EndTime       int64       `json:"end_time"`
	Word          string      `json:"word"`
	Dictionaries  []string    `json:"dictionaries"`
}

func (stat *Statistor) Record(o *Outcome) {
	stat.ReqNumber++
	stat.RetryNumber += o.Retries
	// transport failures carry no status, FailedNumber already counts them
	if o.Status != 0 {
		stat.Counts[o.Status]++
	}
	if o.IsFailed() {
		stat.FailedNumber++
	}
	if o.IsValid {
		stat.SuccessNumber++
	} else {
		stat.FailureNumber++
	}
}

func (stat *Statistor) String() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("[stat] %s took %d s, request total: %d, success: %d, failure: %d", stat.BaseUrl, stat.EndTime-stat.StartTime, stat.ReqNumber, stat.SuccessNumber, stat.FailureNumber))

	if stat.FailedNumber != 0 {
		s.WriteString(", transport failed: " + strconv.Itoa(stat.FailedNumber))
	}
	if stat.RetryNumber != 0 {
		s.WriteString(", retried: " + strconv.Itoa(stat.RetryNumber))
	}
	return s.String()
}

func (stat *Statistor) CountString() string {
	var s strings.Builder
	s.WriteString("[stat] ")
	s.WriteString(stat.BaseUrl)
	for k, v := range stat.Counts {
		s.WriteString(fmt.Sprintf(" %d: %d,", k, v))
	}
	return s.String()
}

func (stat *Statistor) Json() string {
	content, err := json.Marshal(stat)
	if err != nil {
		return err.Error()
	}
	return string(content)
}
