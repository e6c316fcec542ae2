package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRosterCSV(t *testing.T) {
	data := "NetID,姓名,邮箱,总值班天数,休息日值班天数,最长连班天数,期望连班天数,额外休息天数,不可用日期,固定日期\n" +
		"zhangsan,张三,zhangsan@example.com,10,3,2,1,,\"1, 2, 15\",5\n" +
		"lisi,李四,lisi@example.com,8.5,2,,,1,,\n"

	records, err := ParseRosterCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "zhangsan", first.Username)
	assert.Equal(t, "张三", first.FullName)
	assert.Equal(t, "zhangsan@example.com", first.Email)
	assert.Equal(t, 10.0, first.Entry.DaysToWorkTotal)
	assert.Equal(t, 3.0, first.Entry.DaysToWorkAtFreeDay)
	assert.Equal(t, 2.0, first.Entry.MaxLengthOfShift)
	assert.Equal(t, 1.0, first.Entry.WishedLengthOfShift)
	assert.Nil(t, first.Entry.AdditionalFreeDaysBetweenShifts)
	assert.Equal(t, []int32{1, 2, 15}, first.Entry.UnavailableDays)
	assert.Equal(t, []int32{5}, first.Entry.FixedDays)

	second := records[1]
	assert.Equal(t, 8.5, second.Entry.DaysToWorkTotal)
	assert.Zero(t, second.Entry.MaxLengthOfShift)
	assert.Zero(t, second.Entry.WishedLengthOfShift)
	require.NotNil(t, second.Entry.AdditionalFreeDaysBetweenShifts)
	assert.Equal(t, 1.0, *second.Entry.AdditionalFreeDaysBetweenShifts)
	assert.Empty(t, second.Entry.UnavailableDays)
	assert.Empty(t, second.Entry.FixedDays)
}

func TestParseRosterCSVOptionalColumnsMissing(t *testing.T) {
	data := "NetID,姓名,邮箱,总值班天数,休息日值班天数\n" +
		"wangwu,王五,wangwu@example.com,31,8\n"

	records, err := ParseRosterCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 31.0, records[0].Entry.DaysToWorkTotal)
	assert.Nil(t, records[0].Entry.AdditionalFreeDaysBetweenShifts)
}

func TestParseRosterCSVErrors(t *testing.T) {
	header := "NetID,姓名,邮箱,总值班天数,休息日值班天数,不可用日期\n"

	tests := []struct {
		name string
		data string
	}{
		{name: "空文件", data: ""},
		{name: "缺少必需列", data: "NetID,姓名,邮箱,总值班天数\nzhangsan,张三,a@b.c,3\n"},
		{name: "缺少NetID", data: header + ",张三,a@b.c,3,1,\n"},
		{name: "天数不是数字", data: header + "zhangsan,张三,a@b.c,三,1,\n"},
		{name: "日期不是数字", data: header + "zhangsan,张三,a@b.c,3,1,\"1, x\"\n"},
		{name: "NetID重复", data: header + "zhangsan,张三,a@b.c,3,1,\nzhangsan,张三,a@b.c,3,1,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRosterCSV(strings.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}
