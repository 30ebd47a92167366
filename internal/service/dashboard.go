package service

import (
	"alcyxob/gym-console/internal/domain"
	"time"
)

// Summary is the dashboard's overview of roster and sheets.
type Summary struct {
	TotalStudents         int                          `json:"totalStudents"`
	TotalSheets           int                          `json:"totalSheets"`
	ByPaymentStatus       map[domain.PaymentStatus]int `json:"byPaymentStatus"`
	ByPlan                map[string]int               `json:"byPlan"`
	ExpiringSoon          []domain.Student             `json:"expiringSoon"`
	Expired               []domain.Student             `json:"expired"`
	SheetsWithoutStudents []domain.WorkoutSheet        `json:"sheetsWithoutStudents"`
}

// Summarize computes the dashboard from store snapshots. A plan is expiring
// soon when it ends within window of now and has not ended yet.
func Summarize(students []domain.Student, sheets []domain.WorkoutSheet, now time.Time, window time.Duration) Summary {
	sum := Summary{
		TotalStudents:         len(students),
		TotalSheets:           len(sheets),
		ByPaymentStatus:       make(map[domain.PaymentStatus]int),
		ByPlan:                make(map[string]int),
		ExpiringSoon:          []domain.Student{},
		Expired:               []domain.Student{},
		SheetsWithoutStudents: []domain.WorkoutSheet{},
	}
	limit := now.Add(window)
	for _, st := range students {
		sum.ByPaymentStatus[st.PaymentStatus]++
		if st.CurrentPlanID != "" {
			sum.ByPlan[st.CurrentPlanID]++
		}
		if st.PlanExpiryDate == nil {
			continue
		}
		switch exp := *st.PlanExpiryDate; {
		case !exp.After(now):
			sum.Expired = append(sum.Expired, st)
		case !exp.After(limit):
			sum.ExpiringSoon = append(sum.ExpiringSoon, st)
		}
	}
	for _, sh := range sheets {
		if len(sh.AssociatedStudentIDs) == 0 {
			sum.SheetsWithoutStudents = append(sum.SheetsWithoutStudents, sh)
		}
	}
	return sum
}
