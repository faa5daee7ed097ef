package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/middleware"
	"github.com/theleywin/talentnest-connections/src/services"
)

type ConnectionController struct {
	connections *services.ConnectionService
}

func NewConnectionController(connections *services.ConnectionService) *ConnectionController {
	return &ConnectionController{connections: connections}
}

// SendConnectionRequest sends a connection request from the authenticated user to another user
func (cc *ConnectionController) SendConnectionRequest(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	targetUserID, err := lib.ParseObjectID(c.Params("userId"), "Invalid user ID format")
	if err != nil {
		return err
	}

	request, err := cc.connections.Send(c.UserContext(), user.Id, targetUserID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Connection request sent successfully",
		"request": request,
	})
}

// AcceptConnectionRequest accepts a pending connection request and connects both users
func (cc *ConnectionController) AcceptConnectionRequest(c *fiber.Ctx) error {
	requestID, err := lib.ParseObjectID(c.Params("requestId"), "Invalid request ID format")
	if err != nil {
		return err
	}

	request, err := cc.connections.Accept(c.UserContext(), requestID, middleware.CurrentUser(c).Id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection accepted successfully",
		"request": request,
	})
}

// RejectConnectionRequest rejects a pending connection request
func (cc *ConnectionController) RejectConnectionRequest(c *fiber.Ctx) error {
	requestID, err := lib.ParseObjectID(c.Params("requestId"), "Invalid request ID format")
	if err != nil {
		return err
	}

	request, err := cc.connections.Reject(c.UserContext(), requestID, middleware.CurrentUser(c).Id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection request rejected",
		"request": request,
	})
}

// GetConnectionRequests returns all pending connection requests for the authenticated user
func (cc *ConnectionController) GetConnectionRequests(c *fiber.Ctx) error {
	requests, err := cc.connections.ListPending(c.UserContext(), middleware.CurrentUser(c).Id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(requests)
}

// GetUserConnections returns all users connected to the authenticated user
func (cc *ConnectionController) GetUserConnections(c *fiber.Ctx) error {
	connections, err := cc.connections.ListConnections(c.UserContext(), middleware.CurrentUser(c).Id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(connections)
}

// RemoveConnection removes the connection between the authenticated user and another user
func (cc *ConnectionController) RemoveConnection(c *fiber.Ctx) error {
	targetUserID, err := lib.ParseObjectID(c.Params("userId"), "Invalid user ID format")
	if err != nil {
		return err
	}

	if err := cc.connections.RemoveConnection(c.UserContext(), middleware.CurrentUser(c).Id, targetUserID); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Connection removed successfully"))
}

// GetConnectionStatus returns the connection status between the authenticated user and another user
func (cc *ConnectionController) GetConnectionStatus(c *fiber.Ctx) error {
	targetUserID, err := lib.ParseObjectID(c.Params("userId"), "Invalid user ID format")
	if err != nil {
		return err
	}

	status, err := cc.connections.Resolve(c.UserContext(), middleware.CurrentUser(c), targetUserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(status)
}
