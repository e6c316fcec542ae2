package utils

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomEmployee(password string, emailDomainName string) (*domain.Employee, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	employee := &domain.Employee{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleEmployee,
	}

	return employee, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(len(letters))]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// 使用 Fisher-Yates 洗牌算法从 1..lengthOfMonth 中随机选出 n 天，按升序返回
func GenerateRandomDays(lengthOfMonth int, n int) []int32 {
	days := make([]int32, lengthOfMonth)
	for i := range days {
		days[i] = int32(i + 1)
	}

	for i := len(days) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	n = min(max(n, 0), lengthOfMonth)
	chosen := days[:n]
	slices.Sort(chosen)
	return chosen
}

// 随机生成一个排班计划，周末作为休息日
func GenerateRandomRosterPlan(year int32, month int32) *domain.RosterPlan {
	plan := &domain.RosterPlan{
		Name:        fmt.Sprintf("%d 年 %d 月值班表", year, month),
		Description: "排班计划描述" + GenerateRandomID(20, 10),
		Year:        year,
		Month:       month,
	}

	lengthOfMonth := plan.LengthOfMonth()
	plan.FreeDays = WeekendDays(year, month, lengthOfMonth)
	plan.SingleShiftForbiddenDays = GenerateRandomDays(lengthOfMonth, rand.Intn(3))

	return plan
}

// 随机生成排班计划中每个员工的需求，所有员工的值班天数之和等于当月天数
func GenerateRandomRosterEntries(plan *domain.RosterPlan, employeeIDs []int64) []*domain.RosterEntry {
	if len(employeeIDs) == 0 {
		return nil
	}

	lengthOfMonth := plan.LengthOfMonth()
	entries := make([]*domain.RosterEntry, len(employeeIDs))
	for i, id := range employeeIDs {
		total := lengthOfMonth / len(employeeIDs)
		if i < lengthOfMonth%len(employeeIDs) {
			total++
		}

		freeQuota := len(plan.FreeDays) / len(employeeIDs)
		entries[i] = &domain.RosterEntry{
			RosterPlanID:        plan.ID,
			EmployeeID:          id,
			DaysToWorkTotal:     float64(total),
			DaysToWorkAtFreeDay: float64(min(freeQuota, total)),
			MaxLengthOfShift:    float64(rand.Intn(3) + 1),
			WishedLengthOfShift: float64(rand.Intn(2) + 1),
			UnavailableDays:     GenerateRandomDays(lengthOfMonth, rand.Intn(4)),
		}
	}

	return entries
}

// WeekendDays 返回该月所有周六和周日，从 1 开始计数
func WeekendDays(year int32, month int32, lengthOfMonth int) []int32 {
	days := make([]int32, 0)
	for day := 1; day <= lengthOfMonth; day++ {
		weekday := time.Date(int(year), time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			days = append(days, int32(day))
		}
	}
	return days
}
