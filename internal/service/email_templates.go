package service

import (
	"fmt"
	"time"
)

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Log your first week of commuting to start earning points:
%s

Every day you walk, cycle, take transit or work from home counts towards your streak.

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}

func redemptionEmailTemplate(name, rewardTitle string, pointsSpent, balance int, appName string) (string, string) {
	subject := fmt.Sprintf("You redeemed %s", rewardTitle)
	body := fmt.Sprintf(`Hi %s,

You redeemed "%s" for %d points. Your remaining balance is %d points.

Someone from the team will be in touch about collecting your reward.

Best,
The %s Team`, name, rewardTitle, pointsSpent, balance, appName)

	return subject, body
}

func challengeCompletedEmailTemplate(name, challengeTitle string, rewardPoints int, appName string) (string, string) {
	subject := fmt.Sprintf("Challenge complete: %s", challengeTitle)
	body := fmt.Sprintf(`Hi %s,

You completed the "%s" challenge and earned %d bonus points.

Keep it up!

Best,
The %s Team`, name, challengeTitle, rewardPoints, appName)

	return subject, body
}

func passwordResetEmailTemplate(name, token string, validFor time.Duration, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your %s password", appName)
	body := fmt.Sprintf(`Hi %s,

Someone asked to reset your password. To choose a new one, run:

  trak reset --token %s

The token works once and expires in %s. If you did not ask for this, ignore this email.

Best,
The %s Team`, name, token, validFor, appName)

	return subject, body
}
