package handler

import (
	"salonepay/internal/domain/repository"
	"salonepay/internal/usecase"
)

var (
	disputeHandler        *DisputeHandler
	disputeMessageHandler *DisputeMessageHandler
)

func Setup(
	disputeUseCase *usecase.DisputeUseCase,
	messageUseCase *usecase.DisputeMessageUseCase,
	userRepo repository.UserRepository,
) {
	disputeHandler = NewDisputeHandler(disputeUseCase, userRepo)
	disputeMessageHandler = NewDisputeMessageHandler(messageUseCase, userRepo)
}

func GetDisputeHandler() *DisputeHandler {
	return disputeHandler
}

func GetDisputeMessageHandler() *DisputeMessageHandler {
	return disputeMessageHandler
}
