package emissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterFromQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     Filter
	}{
		{
			name:     "sector and year range",
			question: "2018년부터 2022년까지 에너지 부문의 배출량 추이는 어떠한가?",
			want:     Filter{Keyword: "에너지", FromYear: 2018, ToYear: 2022},
		},
		{
			name:     "single year",
			question: "2020년 수송 부문 배출 현황은?",
			want:     Filter{Keyword: "수송", FromYear: 2020, ToYear: 2020},
		},
		{
			name:     "no years no sector",
			question: "연구의 배경 및 필요성은 무엇인가?",
			want:     Filter{},
		},
		{
			name:     "english sector phrase",
			question: "What is the transport sector trend?",
			want:     Filter{Keyword: "수송"},
		},
		{
			name:     "industrial process before industry",
			question: "산업공정 부문의 배출 특성은?",
			want:     Filter{Keyword: "산업공정"},
		},
		{
			name:     "years out of order",
			question: "2022년과 2015년 비교",
			want:     Filter{FromYear: 2015, ToYear: 2022},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterFromQuestion(tt.question))
		})
	}
}

func TestSummaryString(t *testing.T) {
	t.Run("empty summary renders nothing", func(t *testing.T) {
		var s *Summary
		assert.Equal(t, "", s.String())
		assert.True(t, s.Empty())
		assert.Equal(t, "", (&Summary{}).String())
	})

	t.Run("totals and top sector", func(t *testing.T) {
		s := &Summary{
			Count:     24,
			Total:     656000.5,
			FirstYear: 2018,
			LastYear:  2022,
			TopSector: "에너지",
			TopAmount: 480000.0,
		}
		got := s.String()
		assert.Contains(t, got, "2018~2022년")
		assert.Contains(t, got, "24건")
		assert.Contains(t, got, "총배출량은 656000.5 ktCO2eq")
		assert.Contains(t, got, "'에너지'(480000.0 ktCO2eq)")
	})

	t.Run("yearly trend direction", func(t *testing.T) {
		up := &Summary{
			Count: 2, Total: 300, FirstYear: 2020, LastYear: 2021,
			ByYear: []YearTotal{{Year: 2020, Amount: 100}, {Year: 2021, Amount: 200}},
		}
		assert.Contains(t, up.String(), "100.0% 증가")

		down := &Summary{
			Count: 2, Total: 150, FirstYear: 2020, LastYear: 2021,
			ByYear: []YearTotal{{Year: 2020, Amount: 100}, {Year: 2021, Amount: 50}},
		}
		assert.Contains(t, down.String(), "50.0% 감소")
	})
}
