package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/auction --output domain/auction --outpkg auctionmock --filename store_mock.go
