package emails

import (
	"bytes"
	"fmt"
	"html/template"
)

const connectionAcceptedSubject = "%s accepted your connection request"

var connectionAcceptedTemplate = template.Must(template.New("connectionAccepted").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(to right, #0077B5, #00A0DC); padding: 20px; text-align: center; border-radius: 5px 5px 0 0;">
    <h1 style="color: white; margin: 0;">Connection Accepted!</h1>
  </div>
  <div style="background-color: #ffffff; padding: 30px; border-radius: 0 0 5px 5px;">
    <p>Hello {{.SenderName}},</p>
    <p><strong>{{.RecipientName}}</strong> has accepted your connection request on TalentNest.</p>
    <p>You can now message each other and see each other's updates.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.ProfileURL}}" style="background-color: #0077B5; color: white; padding: 14px 28px; text-decoration: none; border-radius: 30px; font-weight: bold;">View {{.RecipientName}}'s Profile</a>
    </div>
    <p>Best regards,<br>The TalentNest Team</p>
  </div>
</body>
</html>`))

type connectionAcceptedData struct {
	SenderName    string
	RecipientName string
	ProfileURL    string
}

// RenderConnectionAccepted returns the subject and HTML body of the mail sent
// to the sender of a request once it is accepted
func RenderConnectionAccepted(senderName, recipientName, profileURL string) (string, string, error) {
	var body bytes.Buffer
	err := connectionAcceptedTemplate.Execute(&body, connectionAcceptedData{
		SenderName:    senderName,
		RecipientName: recipientName,
		ProfileURL:    profileURL,
	})
	if err != nil {
		return "", "", fmt.Errorf("render connection accepted email: %w", err)
	}
	return fmt.Sprintf(connectionAcceptedSubject, recipientName), body.String(), nil
}
