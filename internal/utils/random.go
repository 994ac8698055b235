package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
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

// 主播和助播之外偶尔带上组长权限
func GenerateRandomRoles() []domain.Role {
	roles := []domain.Role{domain.RoleHost}
	if rand.Intn(2) == 0 {
		roles = []domain.Role{domain.RoleAssistant}
	}
	if rand.Intn(10) == 0 {
		roles = append(roles, domain.RoleLeader)
	}
	return roles
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

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Roles:        GenerateRandomRoles(),
		IsActive:     true,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomChannelName() string {
	return fmt.Sprintf("直播间%s", GenerateRandomID(0, 3))
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// GenerateDefaultPeriods 生成一个频道常用的时段模板：上午、下午、晚上各一场，每场一个主播一个助播
func GenerateDefaultPeriods(channelID int64) []*domain.Period {
	slots := []struct {
		start, end domain.TimeOfDay
		noon       bool
	}{
		{domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 12}, false},
		{domain.TimeOfDay{Hour: 13, Minute: 30}, domain.TimeOfDay{Hour: 17}, true},
		{domain.TimeOfDay{Hour: 19}, domain.TimeOfDay{Hour: 22}, false},
	}

	periods := make([]*domain.Period, 0, len(slots)*2)
	for _, s := range slots {
		for _, role := range []domain.Role{domain.RoleHost, domain.RoleAssistant} {
			periods = append(periods, &domain.Period{
				ChannelID: channelID,
				StartTime: s.start,
				EndTime:   s.end,
				For:       role,
				Noon:      s.noon,
			})
		}
	}
	return periods
}
